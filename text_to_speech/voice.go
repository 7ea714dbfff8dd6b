package text_to_speech

import "fmt"

// Voice identifies a synthesis voice.
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceShimmer Voice = "shimmer"
)

const DefaultVoice = VoiceAlloy

// Voices lists every selectable voice in display order.
func Voices() []Voice {
	return []Voice{VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceShimmer}
}

func ParseVoice(s string) (Voice, error) {
	for _, v := range Voices() {
		if string(v) == s {
			return v, nil
		}
	}

	return "", fmt.Errorf("unknown voice %q", s)
}

// Next returns the voice after v, wrapping around.
func (v Voice) Next() Voice {
	voices := Voices()

	for i, candidate := range voices {
		if candidate == v {
			return voices[(i+1)%len(voices)]
		}
	}

	return DefaultVoice
}
