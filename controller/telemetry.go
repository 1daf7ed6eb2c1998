package controller

import (
	"sync"
	"time"
)

// Record is the latest run of a pump
type Record struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Elapsed is End-Start
func (r Record) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

// Telemetry keeps the start and end time of the most recent run of each pump. Each new run replaces the
// previous record for that pump
type Telemetry struct {
	mu      sync.RWMutex
	records map[int]Record
}

func NewTelemetry() *Telemetry {
	return &Telemetry{records: map[int]Record{}}
}

// Record overwrites the pump's record
func (t *Telemetry) Record(pump int, start, end time.Time) {
	t.mu.Lock()
	t.records[pump] = Record{Start: start, End: end}
	t.mu.Unlock()
}

// Get returns the pump's record. The bool is false if the pump has never run
func (t *Telemetry) Get(pump int) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[pump]
	return r, ok
}

// Elapsed returns how long the pump's latest run took. The bool is false if there is no data
func (t *Telemetry) Elapsed(pump int) (time.Duration, bool) {
	r, ok := t.Get(pump)
	if !ok {
		return 0, false
	}
	return r.Elapsed(), true
}

// Snapshot copies all records
func (t *Telemetry) Snapshot() map[int]Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[int]Record, len(t.records))
	for k, v := range t.records {
		result[k] = v
	}
	return result
}
