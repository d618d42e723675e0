package control

// Shade runs the light exposure and shade positioning state machine.
type Shade struct {
	cfg   ShadeConfig
	state ShadeState
}

// NewShade creates a shade controller in MONITORING with the encoder at 0.
func NewShade(cfg ShadeConfig) *Shade {
	return &Shade{
		cfg: cfg,
		state: ShadeState{
			Phase:          ShadeMonitoring,
			TargetPosition: cfg.TargetPosition,
		},
	}
}

// Step runs one iteration with the given sample and returns the motor command.
func (s *Shade) Step(in ShadeInput) ShadeOutput {
	st := &s.state
	st.CurrentPosition = in.Position

	switch st.Phase {
	case ShadeMonitoring:
		if in.Light > s.cfg.LightThreshold {
			st.ExposureCount++
		} else {
			st.ExposureCount = 0
		}
		if st.ExposureCount > s.cfg.ExposureLimit {
			st.MoveCount = 0
			return ShadeOutput{Transition: s.enter(ShadeDeploying, "exposure limit exceeded")}
		}
		return ShadeOutput{}

	case ShadeDeploying:
		return s.move(st.TargetPosition, ShadeHolding)

	case ShadeHolding:
		st.HoldTimer++
		if st.HoldTimer >= s.cfg.HoldDuration {
			st.MoveCount = 0
			return ShadeOutput{Transition: s.enter(ShadeRetracting, "hold elapsed")}
		}
		return ShadeOutput{}

	case ShadeRetracting:
		return s.move(0, ShadeMonitoring)

	default:
		return ShadeOutput{Fault: true}
	}
}

// move drives toward goal and enters next on arrival, or FAULT on timeout.
func (s *Shade) move(goal int32, next ShadePhase) ShadeOutput {
	st := &s.state
	if s.atPosition(goal) {
		switch next {
		case ShadeHolding:
			st.HoldTimer = 0
		case ShadeMonitoring:
			st.ExposureCount = 0
		}
		return ShadeOutput{Transition: s.enter(next, "position reached")}
	}
	if out, stalled := s.countMove(); stalled {
		return out
	}
	return ShadeOutput{
		Duty: ProportionalDuty(goal, st.CurrentPosition, st.TargetPosition, s.cfg.MaxDuty, s.cfg.MinDuty),
	}
}

// Miss runs one iteration for which no position could be read. The motor
// stays off, but a move in progress still counts toward the positioning
// timeout so a dead encoder ends in FAULT.
func (s *Shade) Miss() ShadeOutput {
	switch s.state.Phase {
	case ShadeDeploying, ShadeRetracting:
		out, _ := s.countMove()
		return out
	case ShadeFault:
		return ShadeOutput{Fault: true}
	}
	return ShadeOutput{}
}

// countMove advances the move counter, entering FAULT once it has reached
// the positioning timeout.
func (s *Shade) countMove() (ShadeOutput, bool) {
	st := &s.state
	if st.MoveCount >= s.cfg.PositionTimeout {
		return ShadeOutput{Fault: true, Transition: s.enter(ShadeFault, "positioning timeout")}, true
	}
	st.MoveCount++
	return ShadeOutput{}, false
}

func (s *Shade) atPosition(goal int32) bool {
	diff := int64(goal) - int64(s.state.CurrentPosition)
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(s.cfg.PositionTolerance)
}

func (s *Shade) enter(p ShadePhase, reason string) *Transition {
	t := &Transition{From: s.state.Phase.String(), To: p.String(), Reason: reason}
	s.state.Phase = p
	return t
}

// State returns a copy of the current state.
func (s *Shade) State() ShadeState {
	return s.state
}

// ProportionalDuty returns maxDuty*(goal-current)/scale clamped to
// [-maxDuty, maxDuty]. A non-zero error never yields less than minDuty in
// magnitude, so integer truncation cannot stop the motor short of goal.
// The sign of scale is ignored.
func ProportionalDuty(goal, current, scale int32, maxDuty, minDuty int) int {
	diff := int64(goal) - int64(current)
	if diff == 0 {
		return 0
	}
	sc := int64(scale)
	if sc < 0 {
		sc = -sc
	}
	if sc == 0 {
		sc = 1
	}
	duty := int64(maxDuty) * diff / sc
	if duty > int64(maxDuty) {
		duty = int64(maxDuty)
	}
	if duty < -int64(maxDuty) {
		duty = -int64(maxDuty)
	}
	if diff > 0 && duty < int64(minDuty) {
		duty = int64(minDuty)
	}
	if diff < 0 && duty > -int64(minDuty) {
		duty = -int64(minDuty)
	}
	return int(duty)
}
