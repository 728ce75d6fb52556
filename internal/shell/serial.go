package shell

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// ConsoleBaud is the serial console line rate, 8N1.
const ConsoleBaud = 115200

// serialConn wraps a serial port as an io.ReadWriteCloser.
type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialConn) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialConn) Close() error                { return s.port.Close() }

// OpenSerial opens the console serial port at ConsoleBaud 8N1.
func OpenSerial(portName string) (io.ReadWriteCloser, error) {
	m := &serial.Mode{
		BaudRate: ConsoleBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, m)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &serialConn{port: port}, nil
}
