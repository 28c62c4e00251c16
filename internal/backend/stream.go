package backend

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ollama/ollama/api"
)

// streamLine is one NDJSON object of an Ollama chat stream. Ollama reports
// mid-stream failures as {"error": "..."} objects.
type streamLine struct {
	Message api.Message `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// StreamDecoder incrementally decodes a newline-delimited JSON chat stream.
//
// Bytes are appended to an internal buffer; every complete line (terminated
// by '\n') is cut from the front and parsed, and the unterminated remainder is
// kept for the next Write. Lines that fail to parse are counted and dropped.
// StreamDecoder implements io.Writer so a response body can be copied into it.
type StreamDecoder struct {
	buf     []byte
	content strings.Builder
	lines   int
	skipped int
	lastErr string
	done    bool
}

// Write appends p and consumes every complete line. It never returns an error.
func (d *StreamDecoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	off := 0
	for {
		idx := bytes.IndexByte(d.buf[off:], '\n')
		if idx < 0 {
			break
		}
		d.consume(d.buf[off : off+idx])
		off += idx + 1
	}
	if off > 0 {
		n := copy(d.buf, d.buf[off:])
		d.buf = d.buf[:n]
	}
	return len(p), nil
}

// Flush parses whatever is left in the buffer as a final line.
func (d *StreamDecoder) Flush() {
	if len(d.buf) == 0 {
		return
	}
	d.consume(d.buf)
	d.buf = d.buf[:0]
}

func (d *StreamDecoder) consume(raw []byte) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return
	}
	var obj streamLine
	if err := json.Unmarshal(line, &obj); err != nil {
		d.skipped++
		return
	}
	d.lines++
	if obj.Error != "" {
		d.lastErr = obj.Error
	}
	if obj.Done {
		d.done = true
	}
	d.content.WriteString(obj.Message.Content)
}

// Content returns the accumulated message content.
func (d *StreamDecoder) Content() string { return d.content.String() }

// Lines returns the number of well-formed objects decoded.
func (d *StreamDecoder) Lines() int { return d.lines }

// Skipped returns the number of malformed lines dropped.
func (d *StreamDecoder) Skipped() int { return d.skipped }

// Pending returns the number of buffered bytes not yet terminated by '\n'.
func (d *StreamDecoder) Pending() int { return len(d.buf) }

// Err returns the last error message reported in-stream, if any.
func (d *StreamDecoder) Err() string { return d.lastErr }

// Done reports whether a terminal {"done": true} object was seen.
func (d *StreamDecoder) Done() bool { return d.done }
