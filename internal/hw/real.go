//go:build linux

package hw

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PWM clock for the motor lines; output frequency is pwmClock/PWMRange.
const pwmClock = 1000 * PWMRange

// Board owns every peripheral of the controller on actual Raspberry Pi hardware.
type Board struct {
	chip       *gpiocdev.Chip
	flow       *gpiocdev.Line
	valve      *gpiocdev.Line
	waterFault *gpiocdev.Line
	shadeFault *gpiocdev.Line

	pwmOpen bool
	motorA  rpio.Pin
	motorB  rpio.Pin

	bus     i2c.BusCloser
	adcPort spi.PortCloser
	encPort spi.PortCloser

	Light    *MCP3008
	Moisture *Seesaw
	Encoder  *LS7366R
}

// OpenBoard claims all lines and buses described by p.
// On error everything already claimed is released.
func OpenBoard(p Pins) (*Board, error) {
	b := &Board{}
	if err := b.open(p); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Board) open(p Pins) (err error) {
	b.chip, err = gpiocdev.NewChip(p.Chip)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	b.flow, err = b.chip.RequestLine(p.Flow, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return fmt.Errorf("request flow pin %d: %w", p.Flow, err)
	}
	b.valve, err = b.chip.RequestLine(p.Valve, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request valve pin %d: %w", p.Valve, err)
	}
	b.waterFault, err = b.chip.RequestLine(p.WaterFault, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request water fault pin %d: %w", p.WaterFault, err)
	}
	b.shadeFault, err = b.chip.RequestLine(p.ShadeFault, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request shade fault pin %d: %w", p.ShadeFault, err)
	}

	if err = rpio.Open(); err != nil {
		return fmt.Errorf("open pwm: %w", err)
	}
	b.pwmOpen = true
	b.motorA = rpio.Pin(p.MotorA)
	b.motorB = rpio.Pin(p.MotorB)
	for _, pin := range []rpio.Pin{b.motorA, b.motorB} {
		pin.Mode(rpio.Pwm)
		pin.Freq(pwmClock)
		pin.DutyCycle(0, PWMRange)
	}

	if _, err = host.Init(); err != nil {
		return fmt.Errorf("init periph host: %w", err)
	}

	b.bus, err = i2creg.Open(p.I2CBus)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", p.I2CBus, err)
	}
	b.Moisture = NewSeesaw(&i2c.Dev{Bus: b.bus, Addr: p.SeesawAddr}, 0)

	b.adcPort, err = spireg.Open(p.ADCPort)
	if err != nil {
		return fmt.Errorf("open adc spi %q: %w", p.ADCPort, err)
	}
	adc, err := b.adcPort.Connect(1350*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		return fmt.Errorf("connect adc: %w", err)
	}
	b.Light, err = NewMCP3008(adc, p.ADCChannel)
	if err != nil {
		return err
	}

	b.encPort, err = spireg.Open(p.EncoderPort)
	if err != nil {
		return fmt.Errorf("open encoder spi %q: %w", p.EncoderPort, err)
	}
	enc, err := b.encPort.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return fmt.Errorf("connect encoder: %w", err)
	}
	b.Encoder = NewLS7366R(enc)
	if err = b.Encoder.Init(); err != nil {
		return err
	}

	return nil
}

// ReadFlowPin returns the flow meter signal level.
func (b *Board) ReadFlowPin() (bool, error) {
	v, err := b.flow.Value()
	if err != nil {
		return false, fmt.Errorf("read flow pin: %w", err)
	}
	return v == 1, nil
}

// Drive sets the motor PWM. Only one of the two lines is driven at a time.
func (b *Board) Drive(duty int) error {
	a, r := SplitDuty(duty)
	// Release the opposing line first so both are never driven together.
	if a > 0 {
		b.motorB.DutyCycle(0, PWMRange)
		b.motorA.DutyCycle(a, PWMRange)
		return nil
	}
	b.motorA.DutyCycle(0, PWMRange)
	b.motorB.DutyCycle(r, PWMRange)
	return nil
}

// Valve returns the valve output.
func (b *Board) Valve() Switch { return lineSwitch{b.valve, "valve"} }

// WaterFault returns the watering fault indicator.
func (b *Board) WaterFault() Switch { return lineSwitch{b.waterFault, "water fault"} }

// ShadeFault returns the shade fault indicator.
func (b *Board) ShadeFault() Switch { return lineSwitch{b.shadeFault, "shade fault"} }

type lineSwitch struct {
	line *gpiocdev.Line
	name string
}

func (s lineSwitch) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", s.name, err)
	}
	return nil
}

// Close stops the motor, closes the valve, clears the indicators and releases
// every line and bus. Outputs go back to inputs with pull-down so the valve
// driver stays off through a reboot.
func (b *Board) Close() error {
	var errs []error

	if b.pwmOpen {
		b.motorA.DutyCycle(0, PWMRange)
		b.motorB.DutyCycle(0, PWMRange)
		b.motorA.Output()
		b.motorA.Low()
		b.motorB.Output()
		b.motorB.Low()
		if err := rpio.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pwm: %w", err))
		}
	}

	for _, out := range []struct {
		line *gpiocdev.Line
		name string
	}{
		{b.valve, "valve"},
		{b.waterFault, "water fault"},
		{b.shadeFault, "shade fault"},
	} {
		if out.line == nil {
			continue
		}
		if err := out.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", out.name, err))
		}
		if err := out.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", out.name, err))
		}
		if err := out.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", out.name, err))
		}
	}
	if b.flow != nil {
		if err := b.flow.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close flow pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	for _, c := range []interface{ Close() error }{b.encPort, b.adcPort, b.bus} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bus: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
