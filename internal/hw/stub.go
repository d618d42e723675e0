//go:build !linux

package hw

import "errors"

var errUnsupported = errors.New("hw: not supported on this platform (requires Linux)")

// Board is not available on non-Linux platforms.
type Board struct {
	Light    *MCP3008
	Moisture *Seesaw
	Encoder  *LS7366R
}

// OpenBoard returns an error on non-Linux platforms.
func OpenBoard(p Pins) (*Board, error) {
	return nil, errUnsupported
}

// ReadFlowPin is not implemented on non-Linux platforms.
func (b *Board) ReadFlowPin() (bool, error) {
	return false, errUnsupported
}

// Drive is not implemented on non-Linux platforms.
func (b *Board) Drive(duty int) error {
	return errUnsupported
}

// Valve is not implemented on non-Linux platforms.
func (b *Board) Valve() Switch { return &FakeSwitch{SetError: errUnsupported} }

// WaterFault is not implemented on non-Linux platforms.
func (b *Board) WaterFault() Switch { return &FakeSwitch{SetError: errUnsupported} }

// ShadeFault is not implemented on non-Linux platforms.
func (b *Board) ShadeFault() Switch { return &FakeSwitch{SetError: errUnsupported} }

// Close is not implemented on non-Linux platforms.
func (b *Board) Close() error {
	return nil
}
