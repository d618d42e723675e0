// Package status provides a thread-safe status tracker for the plant-care daemon.
// Tasks push copies of their state after every iteration; the tracker is
// never read back by the control loops.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/plant-care/internal/control"
)

// Config contains daemon configuration for display.
type Config struct {
	ShadePollMs int64
	WaterPollMs int64
	FlowPollMs  int64
	HeartbeatMs int64
	Shade       control.ShadeConfig
	Water       control.WaterConfig
}

// WaterEpisode describes the most recent finished watering episode.
type WaterEpisode struct {
	ID       string
	Outcome  control.Outcome
	Pulses   uint32
	Polls    uint32
	Finished time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Shade       control.ShadeState
	Water       control.WaterState
	LastEpisode *WaterEpisode
	Errors      ErrorCounts
	StartTime   time.Time
	Now         time.Time
	Config      Config
}

// ErrorCounts tracks hardware errors since startup.
type ErrorCounts struct {
	Shade int
	Water int
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateShade records the light task's state.
func (t *Tracker) UpdateShade(st control.ShadeState) {
	t.mu.Lock()
	t.snap.Shade = st
	t.mu.Unlock()
}

// UpdateWater records the water task's state.
func (t *Tracker) UpdateWater(st control.WaterState) {
	t.mu.Lock()
	t.snap.Water = st
	t.mu.Unlock()
}

// SetLastEpisode records a finished watering episode.
func (t *Tracker) SetLastEpisode(ep WaterEpisode) {
	t.mu.Lock()
	t.snap.LastEpisode = &ep
	t.mu.Unlock()
}

// ShadeError counts a hardware error in the light task.
func (t *Tracker) ShadeError() {
	t.mu.Lock()
	t.snap.Errors.Shade++
	t.mu.Unlock()
}

// WaterError counts a hardware error in the water task.
func (t *Tracker) WaterError() {
	t.mu.Lock()
	t.snap.Errors.Water++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastEpisode != nil {
		ep := *s.LastEpisode
		s.LastEpisode = &ep
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
