package hw

import "errors"

// script returns scripted values in order, repeating the last one.
type script[T any] struct {
	samples []T
	index   int
}

func (s *script[T]) next() (T, error) {
	var zero T
	if len(s.samples) == 0 {
		return zero, errors.New("no samples configured")
	}
	v := s.samples[s.index]
	if s.index < len(s.samples)-1 {
		s.index++
	}
	return v, nil
}

// FakeLight is a test double returning scripted light readings.
// Each call to ReadLight consumes the next sample; the last one repeats.
type FakeLight struct {
	script[uint16]

	// ReadError, if set, will be returned by ReadLight()
	ReadError error
}

// NewFakeLight creates a FakeLight with the given samples.
func NewFakeLight(samples ...uint16) *FakeLight {
	return &FakeLight{script: script[uint16]{samples: samples}}
}

// ReadLight returns the next scripted sample.
func (f *FakeLight) ReadLight() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.next()
}

// FakeMoisture is a test double returning scripted moisture readings.
type FakeMoisture struct {
	script[uint16]

	// ReadError, if set, will be returned by ReadMoisture()
	ReadError error
}

// NewFakeMoisture creates a FakeMoisture with the given samples.
func NewFakeMoisture(samples ...uint16) *FakeMoisture {
	return &FakeMoisture{script: script[uint16]{samples: samples}}
}

// ReadMoisture returns the next scripted sample.
func (f *FakeMoisture) ReadMoisture() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.next()
}

// FakeFlow is a test double returning scripted flow meter levels.
type FakeFlow struct {
	script[bool]

	// ReadError, if set, will be returned by ReadFlowPin()
	ReadError error
}

// NewFakeFlow creates a FakeFlow with the given levels.
func NewFakeFlow(levels ...bool) *FakeFlow {
	return &FakeFlow{script: script[bool]{samples: levels}}
}

// ReadFlowPin returns the next scripted level.
func (f *FakeFlow) ReadFlowPin() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.next()
}

// FakeSwitch records every state it is set to.
type FakeSwitch struct {
	On      bool
	History []bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// Set records the new state.
func (f *FakeSwitch) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.History = append(f.History, on)
	return nil
}

// ShadeSim is a motor and encoder pair where the shaft follows the commanded
// duty: each Drive moves the position by duty/Gain counts (at least one count
// while driven) unless Jammed.
type ShadeSim struct {
	Position int32
	Duty     int
	Duties   []int
	Resets   int
	Jammed   bool
	Gain     int

	// DriveError, if set, will be returned by Drive()
	DriveError error
	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewShadeSim creates a simulated shade at position 0.
func NewShadeSim() *ShadeSim {
	return &ShadeSim{Gain: 32}
}

// Drive records the duty and moves the shaft.
func (s *ShadeSim) Drive(duty int) error {
	if s.DriveError != nil {
		return s.DriveError
	}
	s.Duty = duty
	s.Duties = append(s.Duties, duty)
	if s.Jammed || duty == 0 {
		return nil
	}
	step := int32(duty / s.Gain)
	if step == 0 {
		step = 1
		if duty < 0 {
			step = -1
		}
	}
	s.Position += step
	return nil
}

// Reset zeroes the position.
func (s *ShadeSim) Reset() error {
	s.Position = 0
	s.Resets++
	return nil
}

// Read returns the simulated position.
func (s *ShadeSim) Read() (int32, error) {
	if s.ReadError != nil {
		return 0, s.ReadError
	}
	return s.Position, nil
}
