// Package hw provides sensor, actuator and encoder access with hardware abstraction.
// The real implementation uses the Linux GPIO character device, BCM2835 PWM
// and periph.io I2C/SPI buses.
// The fake implementations allow testing without hardware.
package hw

// LightSensor reads ambient light intensity (10-bit, higher = brighter).
type LightSensor interface {
	ReadLight() (uint16, error)
}

// MoistureSensor reads soil moisture (higher = wetter).
type MoistureSensor interface {
	ReadMoisture() (uint16, error)
}

// FlowMeter reads the digital level of the flow meter signal.
type FlowMeter interface {
	ReadFlowPin() (bool, error)
}

// Motor drives the two-direction shade motor.
// Positive duty drives toward deployed, negative toward retracted, 0 stops.
type Motor interface {
	Drive(duty int) error
}

// Switch is an on/off output such as the valve or a fault indicator.
type Switch interface {
	Set(on bool) error
}

// Encoder reads the absolute shade motor position.
type Encoder interface {
	// Reset sets the current position to 0.
	Reset() error
	Read() (int32, error)
}

// PWMRange is the full-scale motor duty.
const PWMRange = 255

// SplitDuty maps a signed duty onto the two motor drive lines.
// Only one line is ever driven; the magnitude is clamped to PWMRange.
func SplitDuty(duty int) (a, b uint32) {
	if duty > PWMRange {
		duty = PWMRange
	}
	if duty < -PWMRange {
		duty = -PWMRange
	}
	if duty > 0 {
		return uint32(duty), 0
	}
	return 0, uint32(-duty)
}

// Pins describes how the controller is wired to the board.
type Pins struct {
	Chip       string // GPIO character device, e.g. "gpiochip0"
	Flow       int    // flow meter input line
	Valve      int    // valve output line
	WaterFault int    // watering fault indicator line
	ShadeFault int    // shade fault indicator line
	MotorA     int    // BCM PWM pin driving toward deployed
	MotorB     int    // BCM PWM pin driving toward retracted

	I2CBus      string // bus carrying the moisture sensor ("" = first)
	SeesawAddr  uint16
	ADCPort     string // SPI port of the light ADC
	ADCChannel  int
	EncoderPort string // SPI port of the quadrature counter
}

// Default wiring (BCM numbering). Motor pins are the two hardware PWM channels.
const (
	DefaultPinFlow       = 17
	DefaultPinValve      = 27
	DefaultPinWaterFault = 22
	DefaultPinShadeFault = 23
	DefaultPinMotorA     = 12
	DefaultPinMotorB     = 13
)

// DefaultPins returns the default board wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:        "gpiochip0",
		Flow:        DefaultPinFlow,
		Valve:       DefaultPinValve,
		WaterFault:  DefaultPinWaterFault,
		ShadeFault:  DefaultPinShadeFault,
		MotorA:      DefaultPinMotorA,
		MotorB:      DefaultPinMotorB,
		SeesawAddr:  SeesawDefaultAddr,
		ADCPort:     "/dev/spidev0.0",
		ADCChannel:  3,
		EncoderPort: "/dev/spidev0.1",
	}
}
