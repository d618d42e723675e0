package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/plant-care/internal/control"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Shade         ShadeJSON    `json:"shade"`
	Water         WaterJSON    `json:"water"`
	Errors        ErrorsJSON   `json:"hardware_errors"`
	Episode       *EpisodeJSON `json:"last_episode,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ShadeJSON is the JSON representation of the light task state.
type ShadeJSON struct {
	Phase         string `json:"phase"`
	Fault         bool   `json:"fault"`
	ExposureCount uint32 `json:"exposure_count"`
	Position      int32  `json:"position"`
	Target        int32  `json:"target"`
	HoldTimer     uint32 `json:"hold_timer"`
}

// WaterJSON is the JSON representation of the water task state.
type WaterJSON struct {
	Phase        string `json:"phase"`
	Fault        bool   `json:"fault"`
	PulseCount   uint32 `json:"pulse_count"`
	TimeoutCount uint32 `json:"timeout_count"`
	LastOutcome  string `json:"last_outcome"`
	Episodes     uint32 `json:"episodes"`
}

// EpisodeJSON is the JSON representation of the last watering episode.
type EpisodeJSON struct {
	ID       string `json:"id"`
	Outcome  string `json:"outcome"`
	Pulses   uint32 `json:"pulses"`
	Polls    uint32 `json:"polls"`
	Finished string `json:"finished"`
}

// ErrorsJSON is the JSON representation of hardware error counts.
type ErrorsJSON struct {
	Shade int `json:"shade"`
	Water int `json:"water"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ShadePollMs       int64  `json:"shade_poll_ms"`
	WaterPollMs       int64  `json:"water_poll_ms"`
	FlowPollMs        int64  `json:"flow_poll_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	LightThreshold    uint16 `json:"light_threshold"`
	ExposureLimit     uint32 `json:"exposure_limit"`
	HoldDuration      uint32 `json:"hold_duration"`
	MoistureThreshold uint16 `json:"moisture_threshold"`
	PulseTarget       uint32 `json:"pulse_target"`
	TimeoutLimit      uint32 `json:"timeout_limit"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Shade: ShadeJSON{
			Phase:         snap.Shade.Phase.String(),
			Fault:         snap.Shade.Phase == control.ShadeFault,
			ExposureCount: snap.Shade.ExposureCount,
			Position:      snap.Shade.CurrentPosition,
			Target:        snap.Shade.TargetPosition,
			HoldTimer:     snap.Shade.HoldTimer,
		},
		Water: WaterJSON{
			Phase:        snap.Water.Phase.String(),
			Fault:        snap.Water.Fault,
			PulseCount:   snap.Water.PulseCount,
			TimeoutCount: snap.Water.TimeoutCount,
			LastOutcome:  snap.Water.LastOutcome.String(),
			Episodes:     snap.Water.Episodes,
		},
		Errors: ErrorsJSON{Shade: snap.Errors.Shade, Water: snap.Errors.Water},
		Config: ConfigJSON{
			ShadePollMs:       snap.Config.ShadePollMs,
			WaterPollMs:       snap.Config.WaterPollMs,
			FlowPollMs:        snap.Config.FlowPollMs,
			HeartbeatMs:       snap.Config.HeartbeatMs,
			LightThreshold:    snap.Config.Shade.LightThreshold,
			ExposureLimit:     snap.Config.Shade.ExposureLimit,
			HoldDuration:      snap.Config.Shade.HoldDuration,
			MoistureThreshold: snap.Config.Water.MoistureThreshold,
			PulseTarget:       snap.Config.Water.PulseTarget,
			TimeoutLimit:      snap.Config.Water.TimeoutLimit,
		},
	}
	if ep := snap.LastEpisode; ep != nil {
		inner.Episode = &EpisodeJSON{
			ID:       ep.ID,
			Outcome:  ep.Outcome.String(),
			Pulses:   ep.Pulses,
			Polls:    ep.Polls,
			Finished: ep.Finished.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatStatusEvent returns the single-line JSON status for a log event.
func FormatStatusEvent(snap Snapshot, event string) []byte {
	inner := buildInner(snap)
	inner.Event = event

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
