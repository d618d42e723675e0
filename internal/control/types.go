// Package control contains the pure state machines for shade and watering control.
// This package has NO external dependencies (no GPIO, buses, OS, or time.Sleep).
// Time is expressed as iteration counts at each task's polling period.
package control

// ShadePhase is the phase of the light control state machine.
type ShadePhase int

const (
	ShadeMonitoring ShadePhase = iota
	ShadeDeploying
	ShadeHolding
	ShadeRetracting
	ShadeFault
)

func (p ShadePhase) String() string {
	switch p {
	case ShadeMonitoring:
		return "MONITORING"
	case ShadeDeploying:
		return "DEPLOYING"
	case ShadeHolding:
		return "HOLDING"
	case ShadeRetracting:
		return "RETRACTING"
	case ShadeFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// WaterPhase is the phase of the water control state machine.
type WaterPhase int

const (
	WaterMonitoring WaterPhase = iota
	WaterWatering
	WaterCooldown
)

func (p WaterPhase) String() string {
	switch p {
	case WaterMonitoring:
		return "MONITORING"
	case WaterWatering:
		return "WATERING"
	case WaterCooldown:
		return "COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

// Outcome is how a watering episode ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDispensed
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "NONE"
	case OutcomeDispensed:
		return "DISPENSED"
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Transition describes a phase change, for logging.
type Transition struct {
	From   string
	To     string
	Reason string
}

// ShadeState is the task-local state of the light control task.
type ShadeState struct {
	Phase ShadePhase
	// Consecutive over-threshold light polls
	ExposureCount uint32
	// Deployed encoder position; retracted is always 0
	TargetPosition int32
	// Last encoder reading
	CurrentPosition int32
	// Iterations spent in HOLDING
	HoldTimer uint32
	// Iterations spent in the current DEPLOYING or RETRACTING move
	MoveCount uint32
}

// ShadeInput is one iteration's sensor sample for the shade.
type ShadeInput struct {
	Light    uint16
	Position int32
}

// ShadeOutput is one iteration's actuator command for the shade.
type ShadeOutput struct {
	Duty       int
	Fault      bool
	Transition *Transition
}

// WaterState is the task-local state of the water control task.
type WaterState struct {
	Phase WaterPhase
	// Low-to-high flow meter edges in the current episode
	PulseCount uint32
	// Last observed flow meter level, for edge detection
	LastPinLevel bool
	// Polls elapsed in the current episode
	TimeoutCount uint32
	// Iterations spent in COOLDOWN
	CooldownTimer uint32
	// Sticky fault indicator, cleared at the next WATERING start
	Fault       bool
	LastOutcome Outcome
	Episodes    uint32
}

// WaterInput is one iteration's sensor sample for watering.
type WaterInput struct {
	Moisture uint16
	FlowPin  bool
}

// Episode summarises a finished watering episode.
type Episode struct {
	Outcome Outcome
	Pulses  uint32
	Polls   uint32
}

// WaterOutput is one iteration's actuator command for watering.
type WaterOutput struct {
	Valve      bool
	Fault      bool
	Transition *Transition
	// Set on the iteration that ends an episode
	Episode *Episode
}
