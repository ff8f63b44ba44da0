package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/remasto/remasto/server/domain/repositories"
)

const (
	defaultModel = "gemini-2.5-flash-preview-tts"

	// The TTS models emit raw 16-bit PCM at 24kHz mono.
	pcmSampleRate = 24000
	pcmChannels   = 1
	pcmSampleSize = 2

	synthesisTimeout = 60 * time.Second
)

// GeminiSynthesizer implements SpeechSynthesizer using Gemini's audio
// response modality with prebuilt voices. Output is a WAV container so the
// client can play it directly.
type GeminiSynthesizer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*GeminiSynthesizer)(nil)

func NewGeminiSynthesizer(client *genai.Client, model string, logger *zap.Logger) *GeminiSynthesizer {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &GeminiSynthesizer{client: client, model: model, logger: logger}
}

// Synthesize converts text into a WAV utterance spoken by the given voice.
// Unknown voices and empty model output fail explicitly.
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if !repositories.ValidVoice(voice) {
		return nil, fmt.Errorf("unrecognized voice selector: %q", voice)
	}

	ctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("speech generation failed: %w", err)
	}

	var pcm []byte
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio returned from TTS model")
	}

	s.logger.Info("Speech synthesized",
		zap.String("voice", voice),
		zap.Int("text_length", len(text)),
		zap.Int("pcm_bytes", len(pcm)))

	return wrapPCM(pcm, pcmChannels, pcmSampleRate, pcmSampleSize), nil
}
