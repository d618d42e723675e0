package hw

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3"
)

// LS7366R instruction bytes: op in bits 7-6, register in bits 5-3.
const (
	ls7366rClearCounter = 0x20
	ls7366rReadCounter  = 0x60
	ls7366rWriteMDR0    = 0x88
	ls7366rWriteMDR1    = 0x90

	ls7366rQuadX4      = 0x03 // MDR0: x4 quadrature, free-running
	ls7366rFourByteCnt = 0x00 // MDR1: 4-byte counter, counting enabled
)

// LS7366R is a 32-bit quadrature counter on SPI tracking the shade shaft.
type LS7366R struct {
	c conn.Conn
}

// NewLS7366R creates an encoder on an already connected SPI conn.
// Call Init before first use.
func NewLS7366R(c conn.Conn) *LS7366R {
	return &LS7366R{c: c}
}

// Init programs x4 quadrature counting with a 4-byte counter.
func (e *LS7366R) Init() error {
	if err := e.tx(ls7366rWriteMDR0, ls7366rQuadX4); err != nil {
		return fmt.Errorf("ls7366r write MDR0: %w", err)
	}
	if err := e.tx(ls7366rWriteMDR1, ls7366rFourByteCnt); err != nil {
		return fmt.Errorf("ls7366r write MDR1: %w", err)
	}
	return nil
}

// Reset clears the counter to 0.
func (e *LS7366R) Reset() error {
	if err := e.tx(ls7366rClearCounter); err != nil {
		return fmt.Errorf("ls7366r clear: %w", err)
	}
	return nil
}

// Read returns the signed counter value.
func (e *LS7366R) Read() (int32, error) {
	w := []byte{ls7366rReadCounter, 0, 0, 0, 0}
	r := make([]byte, len(w))
	if err := e.c.Tx(w, r); err != nil {
		return 0, fmt.Errorf("ls7366r read: %w", err)
	}
	return int32(binary.BigEndian.Uint32(r[1:])), nil
}

func (e *LS7366R) tx(w ...byte) error {
	return e.c.Tx(w, make([]byte, len(w)))
}
