package hw

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
)

// SeesawDefaultAddr is the I2C address of the Adafruit capacitive soil sensor.
const SeesawDefaultAddr = 0x36

const (
	seesawTouchBase    = 0x0F
	seesawTouchChannel = 0x10
	seesawNotReady     = 0xFFFF
	seesawRetries      = 5
)

// ErrSensorNotReady is returned when the sensor keeps answering "not ready".
var ErrSensorNotReady = errors.New("sensor not ready")

// Seesaw reads soil moisture from an Adafruit seesaw capacitive sensor.
type Seesaw struct {
	c   conn.Conn
	pin byte

	// sleep waits between the register write and the read.
	sleep func(time.Duration)
}

// NewSeesaw creates a moisture reader on the given I2C device and touch pin.
func NewSeesaw(c conn.Conn, pin byte) *Seesaw {
	return &Seesaw{c: c, pin: pin, sleep: time.Sleep}
}

// ReadMoisture returns the capacitive touch reading.
// The conversion delay grows by 1ms on each retry.
func (s *Seesaw) ReadMoisture() (uint16, error) {
	reg := []byte{seesawTouchBase, seesawTouchChannel + s.pin}
	buf := make([]byte, 2)

	for retry := 0; retry < seesawRetries; retry++ {
		if err := s.c.Tx(reg, nil); err != nil {
			return 0, fmt.Errorf("seesaw select touch %d: %w", s.pin, err)
		}
		s.sleep(3*time.Millisecond + time.Duration(retry)*time.Millisecond)
		if err := s.c.Tx(nil, buf); err != nil {
			return 0, fmt.Errorf("seesaw read touch %d: %w", s.pin, err)
		}
		v := uint16(buf[0])<<8 | uint16(buf[1])
		if v != seesawNotReady {
			return v, nil
		}
	}
	return 0, fmt.Errorf("seesaw touch %d: %w", s.pin, ErrSensorNotReady)
}
