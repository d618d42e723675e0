package control

import (
	"errors"
	"fmt"
	"time"
)

// Calibration constants. These are fixed at build time.
const (
	LightThreshold    = 400
	ExposureTime      = time.Hour
	ShadeTarget       = 1500
	HoldTime          = time.Hour
	MaxDuty           = 255
	MinDuty           = 40
	PositionTolerance = 0
	PositionTime      = 30 * time.Second

	MoistureThreshold = 250
	PulseTarget       = 45 // ~0.1 L at 450 pulses/L
	FlowTimeoutPolls  = 1000
	CooldownTime      = 10 * time.Minute
)

// ShadeConfig holds the light control calibration. Durations are in
// iterations of the light task's polling period.
type ShadeConfig struct {
	LightThreshold uint16
	ExposureLimit  uint32
	TargetPosition int32
	HoldDuration   uint32
	MaxDuty        int
	// Smallest non-zero duty that still turns the motor
	MinDuty int
	// Allowed distance from the goal position; 0 means exact equality
	PositionTolerance int32
	// Iterations a single move may take before the shade faults
	PositionTimeout uint32
}

// WaterConfig holds the water control calibration. CooldownDuration is in
// iterations of the water task's polling period.
type WaterConfig struct {
	MoistureThreshold uint16
	PulseTarget       uint32
	TimeoutLimit      uint32
	CooldownDuration  uint32
}

// DefaultShadeConfig returns the shade calibration for the given polling period.
func DefaultShadeConfig(period time.Duration) ShadeConfig {
	return ShadeConfig{
		LightThreshold:    LightThreshold,
		ExposureLimit:     Ticks(ExposureTime, period),
		TargetPosition:    ShadeTarget,
		HoldDuration:      Ticks(HoldTime, period),
		MaxDuty:           MaxDuty,
		MinDuty:           MinDuty,
		PositionTolerance: PositionTolerance,
		PositionTimeout:   Ticks(PositionTime, period),
	}
}

// DefaultWaterConfig returns the water calibration for the given polling period.
func DefaultWaterConfig(period time.Duration) WaterConfig {
	return WaterConfig{
		MoistureThreshold: MoistureThreshold,
		PulseTarget:       PulseTarget,
		TimeoutLimit:      FlowTimeoutPolls,
		CooldownDuration:  Ticks(CooldownTime, period),
	}
}

var errInvalidConfig = errors.New("invalid config")

// Validate checks the shade calibration for values the control law cannot use.
func (c ShadeConfig) Validate() error {
	switch {
	case c.TargetPosition == 0:
		return fmt.Errorf("%w: target position must be non-zero", errInvalidConfig)
	case c.MaxDuty <= 0:
		return fmt.Errorf("%w: max duty must be positive, got %d", errInvalidConfig, c.MaxDuty)
	case c.MinDuty < 0 || c.MinDuty > c.MaxDuty:
		return fmt.Errorf("%w: min duty %d outside [0, %d]", errInvalidConfig, c.MinDuty, c.MaxDuty)
	case c.PositionTolerance < 0:
		return fmt.Errorf("%w: negative position tolerance %d", errInvalidConfig, c.PositionTolerance)
	case c.PositionTimeout == 0:
		return fmt.Errorf("%w: position timeout must be non-zero", errInvalidConfig)
	}
	return nil
}

// Validate checks the water calibration.
func (c WaterConfig) Validate() error {
	switch {
	case c.TimeoutLimit == 0:
		return fmt.Errorf("%w: timeout limit must be non-zero", errInvalidConfig)
	case c.PulseTarget >= c.TimeoutLimit:
		// Edges need at least two polls each, so this target is unreachable.
		return fmt.Errorf("%w: pulse target %d not below timeout limit %d", errInvalidConfig, c.PulseTarget, c.TimeoutLimit)
	}
	return nil
}

// Ticks converts a duration into a number of polling iterations, rounding up.
// A positive duration is never less than one iteration.
func Ticks(d, period time.Duration) uint32 {
	if d <= 0 || period <= 0 {
		return 0
	}
	n := (d + period - 1) / period
	if n > time.Duration(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n)
}
