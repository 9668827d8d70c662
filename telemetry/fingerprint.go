package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the force output of every recorded tick. Two runs with
// the same seed and config produce the same fingerprint.
type Fingerprint struct {
	digest *xxhash.Digest
	buf    [8]byte
	ticks  uint64
}

// NewFingerprint creates an empty fingerprint.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{digest: xxhash.New()}
}

// Add folds a tick record into the fingerprint.
func (f *Fingerprint) Add(rec TickRecord) {
	f.putUint64(xxhash.Sum64String(rec.Controller))
	f.putUint64(uint64(rec.Tick))
	f.putUint64(math.Float64bits(rec.ForceX))
	f.putUint64(math.Float64bits(rec.ForceY))
	f.putUint64(math.Float64bits(rec.ForceZ))
	f.ticks++
}

func (f *Fingerprint) putUint64(v uint64) {
	binary.LittleEndian.PutUint64(f.buf[:], v)
	f.digest.Write(f.buf[:])
}

// Sum64 returns the current hash.
func (f *Fingerprint) Sum64() uint64 {
	return f.digest.Sum64()
}

// Ticks returns the number of records folded in.
func (f *Fingerprint) Ticks() uint64 {
	return f.ticks
}

// String formats the hash as fixed-width hex.
func (f *Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.Sum64())
}
