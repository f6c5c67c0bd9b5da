package matserial

import (
	"bytes"
	"io"
)

// frameHeader delimits device frames on the wire. Payload is everything
// between two headers; the device sends no length field.
var frameHeader = []byte{0xAA, 0x55, 0x03, 0x99}

// segmentBytes is the payload size of one 32x32 sensor segment, one byte
// per cell.
const segmentBytes = 1024

// readChunk is the per-read buffer size. Large enough to cover a full
// segment plus header in one read at the device's frame rate.
const readChunk = 2048

// frameScanner splits a serial byte stream into frame payloads. A payload
// is only complete once the next header arrives, so the scanner always lags
// the stream by one header; at EOF the trailing payload is flushed.
type frameScanner struct {
	r     io.Reader
	buf   []byte
	chunk []byte
}

func newFrameScanner(r io.Reader) *frameScanner {
	return &frameScanner{r: r, chunk: make([]byte, readChunk)}
}

// next returns the next complete payload. Returns io.EOF once the stream
// ends and the buffer is drained.
func (s *frameScanner) next() ([]byte, error) {
	for {
		if i := bytes.Index(s.buf, frameHeader); i >= 0 {
			rest := s.buf[i+len(frameHeader):]
			if j := bytes.Index(rest, frameHeader); j >= 0 {
				payload := append([]byte(nil), rest[:j]...)
				s.buf = append(s.buf[:0], rest[j:]...)
				return payload, nil
			}
		} else if len(s.buf) > len(frameHeader)-1 {
			// No header in the buffer: keep only a tail that could be a
			// partial header straddling the read boundary.
			s.buf = append(s.buf[:0], s.buf[len(s.buf)-(len(frameHeader)-1):]...)
		}

		n, err := s.r.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			// Flush the final payload; there is no closing header.
			if i := bytes.Index(s.buf, frameHeader); i >= 0 {
				payload := append([]byte(nil), s.buf[i+len(frameHeader):]...)
				s.buf = nil
				if len(payload) > 0 {
					return payload, nil
				}
			}
			return nil, io.EOF
		}
		return nil, err
	}
}
