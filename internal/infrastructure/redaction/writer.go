package redaction

import (
	"io"
	"sync"

	"github.com/plinth-dev/plinth/internal/application/ports"
)

// Writer wraps an io.Writer and scrubs every write. The CLI routes the
// slog handler through it so log lines never carry credentials.
// Thread-safe: can be used concurrently by multiple goroutines.
type Writer struct {
	underlying io.Writer
	redactor   ports.Redactor
	mu         sync.Mutex
}

// NewWriter creates a redacting writer. A nil redactor passes writes through.
func NewWriter(w io.Writer, r ports.Redactor) *Writer {
	return &Writer{
		underlying: w,
		redactor:   r,
	}
}

// Write implements io.Writer, redacting data before passing to underlying writer.
func (w *Writer) Write(p []byte) (int, error) {
	out := p
	if w.redactor != nil {
		out = []byte(w.redactor.ScrubString(string(p)))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.underlying.Write(out); err != nil {
		return 0, err
	}

	// Report len(p): callers must not see a short write when the
	// redacted text is shorter or longer than the input.
	return len(p), nil
}
