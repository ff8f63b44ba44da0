package repositories

import "context"

// Voice names accepted by the synthesizer. The set is fixed; an unrecognized
// selector must fail explicitly rather than fall back silently.
const (
	VoiceAlgenib      = "Algenib"
	VoiceVindemiatrix = "Vindemiatrix"
	VoiceAchernar     = "Achernar"
	VoiceSchedar      = "Schedar"
)

// Voices returns the known voice selectors in a stable order.
func Voices() []string {
	return []string{VoiceAlgenib, VoiceVindemiatrix, VoiceAchernar, VoiceSchedar}
}

// ValidVoice reports whether name belongs to the known voice set.
func ValidVoice(name string) bool {
	for _, v := range Voices() {
		if v == name {
			return true
		}
	}
	return false
}

// SpeechSynthesizer abstracts text-to-speech services.
type SpeechSynthesizer interface {
	// Synthesize converts UTF-8 text to playable audio in a standard
	// container. It fails explicitly when the voice is unrecognized or the
	// service yields no audio.
	Synthesize(ctx context.Context, text string, voice string) ([]byte, error)
}
