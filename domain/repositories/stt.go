package repositories

import "context"

// SpeechTranscriber abstracts speech recognition services.
type SpeechTranscriber interface {
	// Transcribe converts one encoded audio utterance to text. The MIME type
	// is explicit because it drives recognizer configuration. An empty result
	// on inaudible input is not an error.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
