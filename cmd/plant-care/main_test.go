package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/plant-care/internal/control"
	"github.com/sweeney/plant-care/internal/hw"
	"github.com/sweeney/plant-care/internal/status"
	"github.com/sweeney/plant-care/internal/task"
)

// blockingRunner runs until its context is cancelled.
type blockingRunner struct {
	started chan struct{}
	stopped bool
}

func (r *blockingRunner) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	r.stopped = true
	return nil
}

type failingRunner struct{ err error }

func (r failingRunner) Run(ctx context.Context) error { return r.err }

func waitLoop(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
		return nil
	}
}

func TestRunLoopSignalStopsTasks(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{})}
	tracker := status.NewTracker(time.Now(), status.Config{})
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() { errCh <- runLoop(r, tracker, tick, sig) }()

	<-r.started
	tick <- time.Time{}
	sig <- syscall.SIGTERM

	if err := waitLoop(t, errCh); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if !r.stopped {
		t.Error("expected tasks to stop before runLoop returned")
	}
}

func TestRunLoopStartFailure(t *testing.T) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(failingRunner{err: errors.New("start water: valve stuck")}, nil, nil, make(chan os.Signal))
	}()

	err := waitLoop(t, errCh)
	if err == nil || !strings.Contains(err.Error(), "valve stuck") {
		t.Errorf("expected start error, got %v", err)
	}
}

func TestRunLoopNilTrackerHeartbeat(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{})}
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() { errCh <- runLoop(r, nil, tick, sig) }()

	<-r.started
	tick <- time.Time{}
	sig <- syscall.SIGINT

	if err := waitLoop(t, errCh); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestRunLoopParksActuatorsOnShutdown(t *testing.T) {
	tracker := status.NewTracker(time.Now(), status.Config{})
	sim := hw.NewShadeSim()
	valve := &hw.FakeSwitch{}

	shadeCfg := control.DefaultShadeConfig(time.Millisecond)
	shadeCfg.ExposureLimit = 1
	waterCfg := control.DefaultWaterConfig(time.Millisecond)

	g := task.NewGroup()
	g.Add(task.NewLightTask(shadeCfg, time.Millisecond, hw.NewFakeLight(900), sim, sim, &hw.FakeSwitch{}, tracker), task.PriorityLight)
	g.Add(task.NewWaterTask(waterCfg, time.Millisecond, time.Millisecond,
		hw.NewFakeMoisture(100), hw.NewFakeFlow(false), valve, &hw.FakeSwitch{}, tracker), task.PriorityWater)

	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- runLoop(g, tracker, nil, sig) }()

	// Wait for the valve to open and the shade to start moving
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := tracker.Snapshot()
		if snap.Water.Phase == control.WaterWatering && snap.Shade.Phase == control.ShadeDeploying && snap.Shade.CurrentPosition > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tasks did not start: %+v", snap)
		}
		time.Sleep(time.Millisecond)
	}

	sig <- syscall.SIGTERM
	if err := waitLoop(t, errCh); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if valve.On {
		t.Error("expected valve closed on shutdown")
	}
	if sim.Duty != 0 {
		t.Errorf("expected motor stopped on shutdown, got %d", sim.Duty)
	}
}

func TestReadSensors(t *testing.T) {
	sim := hw.NewShadeSim()
	sim.Position = 750

	line, err := readSensors(sensors{
		light:    hw.NewFakeLight(512),
		moisture: hw.NewFakeMoisture(300),
		flow:     hw.NewFakeFlow(true),
		encoder:  sim,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Light: 512, Moisture: 300, Flow: HIGH, Shade position: 750"
	if line != want {
		t.Errorf("got %q, want %q", line, want)
	}
}

func TestReadSensorsError(t *testing.T) {
	m := hw.NewFakeMoisture(300)
	m.ReadError = errors.New("i2c nack")

	_, err := readSensors(sensors{
		light:    hw.NewFakeLight(512),
		moisture: m,
		flow:     hw.NewFakeFlow(false),
		encoder:  hw.NewShadeSim(),
	})
	if err == nil || !strings.Contains(err.Error(), "read moisture") {
		t.Errorf("expected moisture error, got %v", err)
	}
}

func TestLevelString(t *testing.T) {
	if levelString(true) != "HIGH" {
		t.Error("expected HIGH")
	}
	if levelString(false) != "LOW" {
		t.Error("expected LOW")
	}
}
