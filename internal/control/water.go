package control

// Water runs the soil moisture and metered valve state machine.
type Water struct {
	cfg   WaterConfig
	state WaterState
}

// NewWater creates a water controller in MONITORING with the valve closed.
func NewWater(cfg WaterConfig) *Water {
	return &Water{cfg: cfg}
}

// Step runs one iteration with the given sample and returns the valve command.
func (w *Water) Step(in WaterInput) WaterOutput {
	st := &w.state

	switch st.Phase {
	case WaterMonitoring:
		// Lower reading = drier soil
		if in.Moisture < w.cfg.MoistureThreshold {
			st.Fault = false
			st.PulseCount = 0
			st.TimeoutCount = 0
			st.LastPinLevel = in.FlowPin
			t := w.enter(WaterWatering, "soil dry")
			return WaterOutput{Valve: true, Transition: t}
		}
		return WaterOutput{Fault: st.Fault}

	case WaterWatering:
		if in.FlowPin && !st.LastPinLevel {
			st.PulseCount++
		}
		st.LastPinLevel = in.FlowPin
		st.TimeoutCount++

		switch {
		case st.PulseCount > w.cfg.PulseTarget:
			return w.finish(OutcomeDispensed, "volume dispensed")
		case st.TimeoutCount >= w.cfg.TimeoutLimit:
			st.Fault = true
			return w.finish(OutcomeTimeout, "flow timeout")
		}
		return WaterOutput{Valve: true}

	case WaterCooldown:
		st.CooldownTimer++
		if st.CooldownTimer >= w.cfg.CooldownDuration {
			return WaterOutput{Fault: st.Fault, Transition: w.enter(WaterMonitoring, "cooldown elapsed")}
		}
		return WaterOutput{Fault: st.Fault}
	}
	return WaterOutput{Fault: st.Fault}
}

// finish closes the valve, records the episode and zeroes both counters.
func (w *Water) finish(o Outcome, reason string) WaterOutput {
	st := &w.state
	ep := &Episode{Outcome: o, Pulses: st.PulseCount, Polls: st.TimeoutCount}
	st.PulseCount = 0
	st.TimeoutCount = 0
	st.CooldownTimer = 0
	st.LastOutcome = o
	st.Episodes++
	return WaterOutput{
		Fault:      st.Fault,
		Transition: w.enter(WaterCooldown, reason),
		Episode:    ep,
	}
}

func (w *Water) enter(p WaterPhase, reason string) *Transition {
	t := &Transition{From: w.state.Phase.String(), To: p.String(), Reason: reason}
	w.state.Phase = p
	return t
}

// State returns a copy of the current state.
func (w *Water) State() WaterState {
	return w.state
}
