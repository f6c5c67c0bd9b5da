// Package matserial acquires pressure frames from the mat over a serial
// link. The device streams binary frames delimited by a four-byte header;
// this package resynchronises on the header, decodes payloads into
// gait.PressureFrame values and leaves everything downstream of that to the
// analysis pipeline.
package matserial

import (
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal surface the acquisition loop needs from a serial
// port. Satisfied by go.bug.st/serial.Port and by MockPort in tests.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// DefaultBaudRate is the mat firmware's fixed line rate.
const DefaultBaudRate = 1000000

// OpenPort opens the mat device at the given path with the firmware's fixed
// line settings.
func OpenPort(path string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}
