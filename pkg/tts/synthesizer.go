package tts

import "context"

// Synthesizer converts a script into audio bytes using the given voice.
// Unlike text generation there is one audio file per script, so a failure
// aborts the whole attempt instead of degrading per section.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}
