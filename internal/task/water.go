package task

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/plant-care/internal/control"
	"github.com/sweeney/plant-care/internal/hw"
	"github.com/sweeney/plant-care/internal/status"
)

// WaterTask opens the valve on dry soil until the metered volume has flowed
// or the flow timeout expires.
type WaterTask struct {
	water    *control.Water
	moisture hw.MoistureSensor
	flow     hw.FlowMeter
	valve    *output
	fault    *output
	tracker  *status.Tracker

	poll     time.Duration
	flowPoll time.Duration

	episode string
	newID   func() string
	now     func() time.Time
}

// NewWaterTask creates the water control task. The flow meter is polled every
// flowPoll while watering and every poll otherwise. tracker may be nil.
func NewWaterTask(cfg control.WaterConfig, poll, flowPoll time.Duration, moisture hw.MoistureSensor, flow hw.FlowMeter, valve, fault hw.Switch, tracker *status.Tracker) *WaterTask {
	return &WaterTask{
		water:    control.NewWater(cfg),
		moisture: moisture,
		flow:     flow,
		valve:    newOutput(valve, "valve"),
		fault:    newOutput(fault, "water fault indicator"),
		tracker:  tracker,
		poll:     poll,
		flowPoll: flowPoll,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Name implements Task.
func (t *WaterTask) Name() string { return "water" }

// Start closes the valve and clears the fault indicator.
func (t *WaterTask) Start() error {
	if err := t.valve.set(false); err != nil {
		return err
	}
	return t.fault.set(false)
}

// Step runs one watering iteration and returns the delay before the next.
func (t *WaterTask) Step() time.Duration {
	var in control.WaterInput
	phase := t.water.State().Phase

	if phase == control.WaterMonitoring {
		m, err := t.moisture.ReadMoisture()
		if err != nil {
			t.hardwareError("moisture read error: %v", err)
			return t.poll
		}
		in.Moisture = m
	}

	if phase == control.WaterMonitoring || phase == control.WaterWatering {
		level, err := t.flow.ReadFlowPin()
		if err != nil {
			// Still step while watering so the timeout keeps counting.
			// Holding the last level keeps a missed read from making an edge.
			t.hardwareError("flow pin read error: %v", err)
			if phase == control.WaterMonitoring {
				return t.poll
			}
			level = t.water.State().LastPinLevel
		}
		in.FlowPin = level
	}

	out := t.water.Step(in)

	if err := t.valve.set(out.Valve); err != nil {
		t.hardwareError("%v", err)
	}
	if err := t.fault.set(out.Fault); err != nil {
		t.hardwareError("%v", err)
	}

	st := t.water.State()
	if tr := out.Transition; tr != nil {
		if st.Phase == control.WaterWatering {
			t.episode = t.newID()
			log.Printf("water: episode %s started, moisture=%d", t.episode, in.Moisture)
		}
		log.Printf("water: %s -> %s (%s)", tr.From, tr.To, tr.Reason)
	}
	if ep := out.Episode; ep != nil {
		log.Printf("water: episode %s %s, pulses=%d polls=%d fault=%v",
			t.episode, ep.Outcome, ep.Pulses, ep.Polls, out.Fault)
		if t.tracker != nil {
			t.tracker.SetLastEpisode(status.WaterEpisode{
				ID:       t.episode,
				Outcome:  ep.Outcome,
				Pulses:   ep.Pulses,
				Polls:    ep.Polls,
				Finished: t.now(),
			})
		}
		t.episode = ""
	}
	if t.tracker != nil {
		t.tracker.UpdateWater(st)
	}

	if st.Phase == control.WaterWatering {
		return t.flowPoll
	}
	return t.poll
}

// Safe closes the valve.
func (t *WaterTask) Safe() error {
	t.valve.known = false
	return t.valve.set(false)
}

// State returns a copy of the water state.
func (t *WaterTask) State() control.WaterState {
	return t.water.State()
}

func (t *WaterTask) hardwareError(format string, args ...interface{}) {
	log.Printf("water: "+format, args...)
	if t.tracker != nil {
		t.tracker.WaterError()
	}
}
