package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/steady/config"
)

// csvSink appends rows to one CSV file, writing the header once.
type csvSink struct {
	file          *os.File
	headerWritten bool
}

func (s *csvSink) write(rows any) error {
	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, s.file); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(rows, s.file)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir string

	ticks   *csvSink
	windows *csvSink
	perf    *csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). Tick rows are only written
// when recordTicks is set.
func NewOutputManager(dir string, recordTicks bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	open := func(name string) (*csvSink, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		return &csvSink{file: f}, nil
	}

	var err error
	if om.windows, err = open("windows.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = open("perf.csv"); err != nil {
		return nil, err
	}
	if recordTicks {
		if om.ticks, err = open("ticks.csv"); err != nil {
			return nil, err
		}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTicks appends tick records to ticks.csv.
func (om *OutputManager) WriteTicks(records []TickRecord) error {
	if om == nil || om.ticks == nil || len(records) == 0 {
		return nil
	}
	if err := om.ticks.write(records); err != nil {
		return fmt.Errorf("writing ticks: %w", err)
	}
	return nil
}

// WriteWindows appends window stats records to windows.csv.
func (om *OutputManager) WriteWindows(stats []WindowStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	if err := om.windows.write(stats); err != nil {
		return fmt.Errorf("writing windows: %w", err)
	}
	return nil
}

// WritePerf appends one window of step timing to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write(stats.Rows(windowEnd)); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.ticks, om.windows, om.perf} {
		if s == nil || s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
