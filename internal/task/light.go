package task

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/plant-care/internal/control"
	"github.com/sweeney/plant-care/internal/hw"
	"github.com/sweeney/plant-care/internal/status"
)

// LightTask deploys the shade after sustained sun and retracts it after the
// hold period.
type LightTask struct {
	shade   *control.Shade
	light   hw.LightSensor
	motor   hw.Motor
	encoder hw.Encoder
	fault   *output
	tracker *status.Tracker
	period  time.Duration
}

// NewLightTask creates the light control task. tracker may be nil.
func NewLightTask(cfg control.ShadeConfig, period time.Duration, light hw.LightSensor, motor hw.Motor, encoder hw.Encoder, fault hw.Switch, tracker *status.Tracker) *LightTask {
	return &LightTask{
		shade:   control.NewShade(cfg),
		light:   light,
		motor:   motor,
		encoder: encoder,
		fault:   newOutput(fault, "shade fault indicator"),
		tracker: tracker,
		period:  period,
	}
}

// Name implements Task.
func (t *LightTask) Name() string { return "light" }

// Start stops the motor and zeroes the encoder. The shade must be at its
// retracted reference position.
func (t *LightTask) Start() error {
	if err := t.motor.Drive(0); err != nil {
		return fmt.Errorf("stop motor: %w", err)
	}
	if err := t.encoder.Reset(); err != nil {
		return fmt.Errorf("reset encoder: %w", err)
	}
	if err := t.fault.set(false); err != nil {
		return err
	}
	return nil
}

// Step runs one shade iteration and returns the delay before the next.
func (t *LightTask) Step() time.Duration {
	var in control.ShadeInput

	if t.shade.State().Phase == control.ShadeMonitoring {
		light, err := t.light.ReadLight()
		if err != nil {
			t.hardwareError("light read error: %v", err)
			return t.period
		}
		in.Light = light
	}

	var out control.ShadeOutput
	pos, err := t.encoder.Read()
	if err != nil {
		// Motor stays off; a move in progress still counts toward its timeout.
		t.hardwareError("encoder read error: %v", err)
		out = t.shade.Miss()
	} else {
		in.Position = pos
		out = t.shade.Step(in)
		if err := t.motor.Drive(out.Duty); err != nil {
			t.hardwareError("motor drive error: %v", err)
		}
	}

	if err := t.fault.set(out.Fault); err != nil {
		log.Printf("light: %v", err)
		t.countError()
	}

	st := t.shade.State()
	if tr := out.Transition; tr != nil {
		log.Printf("light: %s -> %s (%s) exposure=%d position=%d",
			tr.From, tr.To, tr.Reason, st.ExposureCount, st.CurrentPosition)
		if st.Phase == control.ShadeFault {
			log.Printf("light: shade stalled at %d after %d moves, motor disabled until restart",
				st.CurrentPosition, st.MoveCount)
		}
	}
	if t.tracker != nil {
		t.tracker.UpdateShade(st)
	}
	return t.period
}

// Safe stops the motor.
func (t *LightTask) Safe() error {
	if err := t.motor.Drive(0); err != nil {
		return fmt.Errorf("stop motor: %w", err)
	}
	return nil
}

// State returns a copy of the shade state.
func (t *LightTask) State() control.ShadeState {
	return t.shade.State()
}

// hardwareError logs the error, counts it and stops the motor; a move
// resumes on the next successful iteration.
func (t *LightTask) hardwareError(format string, args ...interface{}) {
	log.Printf("light: "+format, args...)
	t.countError()
	if err := t.motor.Drive(0); err != nil {
		log.Printf("light: stop motor: %v", err)
	}
}

func (t *LightTask) countError() {
	if t.tracker != nil {
		t.tracker.ShadeError()
	}
}
