package listener

import (
	"bytes"
	"io"
)

// lineEndings presents a telnet or ssh stream as plain text. CR LF, CR NUL
// and a bare CR all read as "\n"; every "\n" written goes out as CR LF.
type lineEndings struct {
	rw     io.ReadWriter
	lastCR bool
}

func newLineEndings(rw io.ReadWriter) *lineEndings {
	return &lineEndings{rw: rw}
}

func (l *lineEndings) Read(p []byte) (int, error) {
	n, err := l.rw.Read(p)

	// Rewritten in place; out never passes the byte being read.
	out := p[:0]
	for _, b := range p[:n] {
		switch {
		case l.lastCR && (b == '\n' || b == 0):
		case b == '\r':
			out = append(out, '\n')
		default:
			out = append(out, b)
		}
		l.lastCR = b == '\r'
	}
	return len(out), err
}

func (l *lineEndings) Write(p []byte) (int, error) {
	if _, err := l.rw.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
