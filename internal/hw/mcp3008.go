package hw

import (
	"fmt"

	"periph.io/x/conn/v3"
)

// MCP3008 reads the photocell through one single-ended channel of an
// MCP3008 10-bit SPI ADC.
type MCP3008 struct {
	c       conn.Conn
	channel int
}

// NewMCP3008 creates an ADC reader on an already connected SPI conn.
func NewMCP3008(c conn.Conn, channel int) (*MCP3008, error) {
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("mcp3008: channel %d out of range", channel)
	}
	return &MCP3008{c: c, channel: channel}, nil
}

// ReadLight returns the raw 10-bit conversion.
func (m *MCP3008) ReadLight() (uint16, error) {
	// Start bit, then single-ended mode and channel in the high nibble.
	w := []byte{0x01, byte(0x80 | m.channel<<4), 0x00}
	r := make([]byte, len(w))
	if err := m.c.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp3008 channel %d: %w", m.channel, err)
	}
	return uint16(r[1]&0x03)<<8 | uint16(r[2]), nil
}
