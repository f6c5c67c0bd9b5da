package matserial

import (
	"io"
	"time"
)

// MockPort implements Porter for tests: it replays a canned byte stream
// and records writes.
type MockPort struct {
	ReadData    []byte
	WrittenData []byte
	ReadError   error
	CloseError  error
	Closed      bool
	ReadDelay   time.Duration
}

func (m *MockPort) Read(p []byte) (int, error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}
	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}
