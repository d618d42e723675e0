package hw

import (
	"errors"
	"testing"
)

func TestFakeLightRead(t *testing.T) {
	f := NewFakeLight(100, 500, 900)

	for i, want := range []uint16{100, 500, 900, 900} {
		got, err := f.ReadLight()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("read %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestFakeLightNoSamples(t *testing.T) {
	f := NewFakeLight()

	if _, err := f.ReadLight(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeMoistureError(t *testing.T) {
	f := NewFakeMoisture(300)
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadMoisture()
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeFlowRepeatsLast(t *testing.T) {
	f := NewFakeFlow(false, true)

	f.ReadFlowPin()
	for i := 0; i < 3; i++ {
		v, err := f.ReadFlowPin()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !v {
			t.Errorf("read %d: expected last level to repeat", i)
		}
	}
}

func TestFakeSwitchHistory(t *testing.T) {
	var s FakeSwitch

	s.Set(true)
	s.Set(false)
	s.Set(true)

	if !s.On {
		t.Error("expected switch on")
	}
	if len(s.History) != 3 {
		t.Fatalf("expected 3 recorded states, got %d", len(s.History))
	}

	s.SetError = errors.New("stuck")
	if err := s.Set(false); err == nil {
		t.Error("expected error")
	}
	if !s.On {
		t.Error("failed Set should not change state")
	}
}

func TestShadeSimFollowsDuty(t *testing.T) {
	s := NewShadeSim()

	s.Drive(255)
	if s.Position != 7 {
		t.Errorf("expected position 7, got %d", s.Position)
	}
	s.Drive(10)
	if s.Position != 8 {
		t.Errorf("expected minimum step of 1, got %d", s.Position)
	}
	s.Drive(-64)
	if s.Position != 6 {
		t.Errorf("expected position 6, got %d", s.Position)
	}
	s.Drive(0)
	if s.Position != 6 {
		t.Errorf("expected no movement at duty 0, got %d", s.Position)
	}

	s.Jammed = true
	s.Drive(255)
	if s.Position != 6 {
		t.Errorf("jammed shaft moved to %d", s.Position)
	}

	s.Reset()
	pos, _ := s.Read()
	if pos != 0 || s.Resets != 1 {
		t.Errorf("expected reset to 0, got %d (resets=%d)", pos, s.Resets)
	}
}

func TestSplitDuty(t *testing.T) {
	tests := []struct {
		duty int
		a, b uint32
	}{
		{0, 0, 0},
		{100, 100, 0},
		{-100, 0, 100},
		{255, 255, 0},
		{300, 255, 0},
		{-1000, 0, 255},
	}
	for _, tt := range tests {
		a, b := SplitDuty(tt.duty)
		if a != tt.a || b != tt.b {
			t.Errorf("SplitDuty(%d): got (%d, %d), want (%d, %d)", tt.duty, a, b, tt.a, tt.b)
		}
		if a != 0 && b != 0 {
			t.Errorf("SplitDuty(%d): both lines driven", tt.duty)
		}
	}
}

func TestDefaultPins(t *testing.T) {
	p := DefaultPins()
	if p.MotorA != 12 || p.MotorB != 13 {
		t.Errorf("motor pins must be the hardware PWM channels, got %d/%d", p.MotorA, p.MotorB)
	}
	if p.SeesawAddr != 0x36 {
		t.Errorf("SeesawAddr: got %#x, want 0x36", p.SeesawAddr)
	}
}
