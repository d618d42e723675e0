package task

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/plant-care/internal/control"
	"github.com/sweeney/plant-care/internal/hw"
	"github.com/sweeney/plant-care/internal/status"
)

const (
	waterPoll = 100 * time.Millisecond
	flowPoll  = 10 * time.Millisecond
)

type waterRig struct {
	task     *WaterTask
	moisture *hw.FakeMoisture
	flow     *hw.FakeFlow
	valve    *hw.FakeSwitch
	fault    *hw.FakeSwitch
	tracker  *status.Tracker
}

func newWaterRig(t *testing.T, moisture *hw.FakeMoisture, flow *hw.FakeFlow) *waterRig {
	t.Helper()
	r := &waterRig{
		moisture: moisture,
		flow:     flow,
		valve:    &hw.FakeSwitch{},
		fault:    &hw.FakeSwitch{},
		tracker:  status.NewTracker(time.Now(), status.Config{}),
	}
	r.task = NewWaterTask(control.DefaultWaterConfig(waterPoll), waterPoll, flowPoll,
		moisture, flow, r.valve, r.fault, r.tracker)
	r.task.newID = func() string { return "episode-1" }
	if err := r.task.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return r
}

// toggling returns a flow meter script that starts low and then produces n
// low-to-high edges.
func toggling(n int) *hw.FakeFlow {
	levels := []bool{false}
	for i := 0; i < n; i++ {
		levels = append(levels, true, false)
	}
	return hw.NewFakeFlow(levels...)
}

func TestWaterTaskDispenseScenario(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), toggling(60))

	if d := r.task.Step(); d != flowPoll {
		t.Errorf("expected flow poll interval once watering, got %v", d)
	}
	if !r.valve.On {
		t.Fatal("expected valve open")
	}

	polls := 0
	for r.task.State().Phase == control.WaterWatering {
		polls++
		if polls > 1000 {
			t.Fatal("episode did not end within 1000 polls")
		}
		r.task.Step()
	}

	if r.valve.On {
		t.Error("expected valve closed")
	}
	if r.fault.On {
		t.Error("expected fault indicator off")
	}
	if r.task.State().PulseCount != 0 || r.task.State().TimeoutCount != 0 {
		t.Error("expected counters reset")
	}

	ep := r.tracker.Snapshot().LastEpisode
	if ep == nil {
		t.Fatal("expected episode recorded")
	}
	if ep.Outcome != control.OutcomeDispensed || ep.Pulses != 46 || ep.ID != "episode-1" {
		t.Errorf("unexpected episode %+v", ep)
	}

	// Valve driven only on change: closed at start, opened, closed
	want := []bool{false, true, false}
	if len(r.valve.History) != len(want) {
		t.Fatalf("valve history: got %v, want %v", r.valve.History, want)
	}
	for i := range want {
		if r.valve.History[i] != want[i] {
			t.Errorf("valve history: got %v, want %v", r.valve.History, want)
			break
		}
	}
}

func TestWaterTaskTimeoutScenario(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), hw.NewFakeFlow(false))

	r.task.Step()
	for i := 1; i < 1000; i++ {
		r.task.Step()
		if !r.valve.On {
			t.Fatalf("poll %d: valve closed early", i)
		}
	}

	if d := r.task.Step(); d != waterPoll {
		t.Errorf("expected normal poll interval in cooldown, got %v", d)
	}
	if r.valve.On {
		t.Error("expected valve closed after 1000 polls")
	}
	if !r.fault.On {
		t.Error("expected fault indicator on")
	}
	ep := r.tracker.Snapshot().LastEpisode
	if ep == nil || ep.Outcome != control.OutcomeTimeout || ep.Polls != 1000 {
		t.Errorf("unexpected episode %+v", ep)
	}
	if r.task.State().Phase != control.WaterCooldown {
		t.Errorf("expected COOLDOWN, got %s", r.task.State().Phase)
	}
}

func TestWaterTaskFlowErrorStillTimesOut(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), hw.NewFakeFlow(false))
	r.task.Step()

	r.flow.ReadError = errors.New("line gone")
	for i := 0; i < 1000; i++ {
		r.task.Step()
	}

	if r.valve.On {
		t.Error("expected valve closed by timeout")
	}
	if !r.fault.On {
		t.Error("expected fault indicator on")
	}
	if got := r.tracker.Snapshot().Errors.Water; got != 1000 {
		t.Errorf("expected 1000 water errors, got %d", got)
	}
}

func TestWaterTaskFlowErrorAddsNoPulse(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), hw.NewFakeFlow(false, true))
	r.task.Step()
	r.task.Step()
	if got := r.task.State().PulseCount; got != 1 {
		t.Fatalf("expected 1 pulse, got %d", got)
	}

	// Pin stays high across the failed read
	r.flow.ReadError = errors.New("line gone")
	r.task.Step()
	r.flow.ReadError = nil
	r.task.Step()
	r.task.Step()

	if got := r.task.State().PulseCount; got != 1 {
		t.Errorf("failed read counted as an edge: got %d pulses, want 1", got)
	}
	if got := r.task.State().TimeoutCount; got != 4 {
		t.Errorf("expected failed read to count toward timeout: got %d polls, want 4", got)
	}
}

func TestWaterTaskMoistureErrorSkips(t *testing.T) {
	m := hw.NewFakeMoisture(100)
	m.ReadError = errors.New("i2c nack")
	r := newWaterRig(t, m, hw.NewFakeFlow(false))

	for i := 0; i < 5; i++ {
		if d := r.task.Step(); d != waterPoll {
			t.Errorf("expected poll interval, got %v", d)
		}
	}
	if r.valve.On {
		t.Error("valve opened without a moisture reading")
	}
	if got := r.tracker.Snapshot().Errors.Water; got != 5 {
		t.Errorf("expected 5 errors, got %d", got)
	}
}

func TestWaterTaskWetSoilIdle(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(600), hw.NewFakeFlow(false))

	for i := 0; i < 100; i++ {
		r.task.Step()
	}
	if r.task.State().Phase != control.WaterMonitoring {
		t.Errorf("expected MONITORING, got %s", r.task.State().Phase)
	}
	if len(r.valve.History) != 1 {
		t.Errorf("valve driven while idle: %v", r.valve.History)
	}
}

func TestWaterTaskValveErrorRetries(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), hw.NewFakeFlow(false))

	r.valve.SetError = errors.New("relay stuck")
	r.task.Step()
	if r.valve.On {
		t.Fatal("valve should not have switched")
	}

	r.valve.SetError = nil
	r.task.Step()
	if !r.valve.On {
		t.Error("expected valve write retried on next iteration")
	}
}

func TestWaterTaskSafeClosesValve(t *testing.T) {
	r := newWaterRig(t, hw.NewFakeMoisture(200), hw.NewFakeFlow(false))
	r.task.Step()
	if !r.valve.On {
		t.Fatal("expected valve open")
	}

	if err := r.task.Safe(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.valve.On {
		t.Error("expected valve closed")
	}
}
