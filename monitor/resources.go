package monitor

import (
	"bytes"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/shirou/gopsutil/process"
)

const (
	defaultProfileSeconds = 1
	maxProfileSeconds     = 30
	profileTop            = 20
)

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	Threads    int32   `json:"threads"`
}

// resources reports CPU and memory use of the simulation process.
func (s *Server) resources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, "reading process: "+err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, "reading cpu: "+err.Error(), http.StatusInternalServerError)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, "reading memory: "+err.Error(), http.StatusInternalServerError)
		return
	}
	threads, err := proc.NumThreads()
	if err != nil {
		threads = 0
	}

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: mem.RSS,
		Threads:    threads,
	})
}

// FunctionCost is one row of a flat CPU profile.
type FunctionCost struct {
	Function string  `json:"function"`
	Flat     float64 `json:"flat_ms"`
	Share    float64 `json:"share"`
}

// ProfileSummary is the top of a CPU profile taken while the simulation runs.
type ProfileSummary struct {
	Duration  float64        `json:"duration_s"`
	Samples   int            `json:"samples"`
	TotalMS   float64        `json:"total_ms"`
	Functions []FunctionCost `json:"functions"`
}

// profileCPU records a CPU profile for ?seconds= (default 1) and returns the
// functions with the most flat time.
func (s *Server) profileCPU(w http.ResponseWriter, r *http.Request) {
	seconds := defaultProfileSeconds
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxProfileSeconds {
			http.Error(w, "seconds must be between 1 and 30", http.StatusBadRequest)
			return
		}
		seconds = n
	}

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		http.Error(w, "profiling: "+err.Error(), http.StatusConflict)
		return
	}
	select {
	case <-time.After(time.Duration(seconds) * time.Second):
	case <-r.Context().Done():
	}
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, "parsing profile: "+err.Error(), http.StatusInternalServerError)
		return
	}

	summary := summarizeProfile(prof, profileTop)
	summary.Duration = float64(seconds)
	writeJSON(w, http.StatusOK, summary)
}

// summarizeProfile attributes each sample's last value to its leaf function.
func summarizeProfile(prof *profile.Profile, top int) ProfileSummary {
	valueIdx := len(prof.SampleType) - 1
	flat := make(map[string]int64)
	var total int64

	for _, sample := range prof.Sample {
		if valueIdx < 0 || valueIdx >= len(sample.Value) {
			continue
		}
		v := sample.Value[valueIdx]
		total += v

		name := "unknown"
		if len(sample.Location) > 0 && len(sample.Location[0].Line) > 0 {
			if fn := sample.Location[0].Line[0].Function; fn != nil {
				name = fn.Name
			}
		}
		flat[name] += v
	}

	summary := ProfileSummary{
		Samples:   len(prof.Sample),
		TotalMS:   float64(total) / 1e6,
		Functions: make([]FunctionCost, 0, len(flat)),
	}
	for name, v := range flat {
		fc := FunctionCost{Function: name, Flat: float64(v) / 1e6}
		if total > 0 {
			fc.Share = float64(v) / float64(total)
		}
		summary.Functions = append(summary.Functions, fc)
	}
	sort.Slice(summary.Functions, func(i, j int) bool {
		if summary.Functions[i].Flat != summary.Functions[j].Flat {
			return summary.Functions[i].Flat > summary.Functions[j].Flat
		}
		return summary.Functions[i].Function < summary.Functions[j].Function
	})
	if len(summary.Functions) > top {
		summary.Functions = summary.Functions[:top]
	}
	return summary
}
