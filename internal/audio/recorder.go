package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAlreadyRecording is returned when Start is called while a
	// capture is in progress.
	ErrAlreadyRecording = errors.New("audio: recording already in progress")
	// ErrNotRecording is returned when audio arrives outside a capture.
	ErrNotRecording = errors.New("audio: no recording in progress")
)

// SizeLimitError is returned when an utterance exceeds the recorder's
// configured maximum. The capture is discarded when this happens.
type SizeLimitError struct {
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("audio: recording exceeds %d byte limit", e.Limit)
}

// Recorder buffers a single utterance of caller audio between a
// record-start and record-stop boundary. It is safe for concurrent use;
// only one capture can be in progress at a time.
type Recorder struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	mimeType  string
	recording bool
	maxBytes  int
}

// NewRecorder creates a recorder that rejects utterances larger than
// maxBytes. A non-positive maxBytes defaults to 10 MiB.
func NewRecorder(maxBytes int) *Recorder {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Recorder{maxBytes: maxBytes}
}

// Start opens a capture for a new utterance.
func (r *Recorder) Start(mimeType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}
	r.buf.Reset()
	r.mimeType = mimeType
	r.recording = true
	return nil
}

// Append adds an audio chunk to the open capture. When the capture
// overflows the size limit it is discarded and the recorder returns to
// the idle state.
func (r *Recorder) Append(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return ErrNotRecording
	}
	if r.buf.Len()+len(chunk) > r.maxBytes {
		r.reset()
		return &SizeLimitError{Limit: r.maxBytes}
	}
	r.buf.Write(chunk)
	return nil
}

// Stop closes the capture and returns the buffered utterance along with
// its MIME type. The recorder is reset regardless of outcome, so a
// subsequent Start always begins from empty.
func (r *Recorder) Stop() ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, "", ErrNotRecording
	}
	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	mime := r.mimeType
	r.reset()
	return data, mime, nil
}

// Abort discards any capture in progress.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) reset() {
	r.buf.Reset()
	r.mimeType = ""
	r.recording = false
}
