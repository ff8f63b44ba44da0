package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/repositories"
)

// GoogleTranscriber implements SpeechTranscriber using Google Cloud
// Speech-to-Text batch recognition. One call transcribes one candidate
// utterance.
type GoogleTranscriber struct {
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechTranscriber = (*GoogleTranscriber)(nil)

func NewGoogleTranscriber(language string, logger *zap.Logger) *GoogleTranscriber {
	if language == "" {
		language = "en-US"
	}
	return &GoogleTranscriber{language: language, logger: logger}
}

// Transcribe converts one encoded utterance to text. Inaudible audio yields
// an empty transcription, not an error; the round must still proceed.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio buffer is empty")
	}

	encoding, sampleRate, err := encodingForMIME(mimeType)
	if err != nil {
		return "", err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: sampleRate,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize failed: %w", err)
	}

	var transcription strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if transcription.Len() > 0 {
			transcription.WriteString(" ")
		}
		transcription.WriteString(result.Alternatives[0].Transcript)
	}

	text := strings.TrimSpace(transcription.String())
	g.logger.Info("Transcription completed",
		zap.String("mime_type", mimeType),
		zap.Int("audio_bytes", len(audio)),
		zap.Int("text_length", len(text)))

	return text, nil
}

// encodingForMIME maps a browser recording MIME type to the recognizer
// configuration. Sample rate 0 lets the service read it from the container
// header where the format carries one.
func encodingForMIME(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, int32, error) {
	base := mimeType
	if idx := strings.Index(base, ";"); idx != -1 {
		base = base[:idx]
	}
	switch strings.ToLower(strings.TrimSpace(base)) {
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000, nil
	case "audio/ogg":
		return speechpb.RecognitionConfig_OGG_OPUS, 48000, nil
	case "audio/wav", "audio/x-wav", "audio/wave":
		return speechpb.RecognitionConfig_LINEAR16, 0, nil
	case "audio/flac":
		return speechpb.RecognitionConfig_FLAC, 0, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0,
			fmt.Errorf("unsupported audio MIME type: %s", mimeType)
	}
}
