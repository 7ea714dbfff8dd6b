package speech_to_text

import (
	"math"

	"github.com/go-audio/audio"
	"github.com/mjibson/go-dsp/fft"
)

// whisperSampleRate is the only input rate whisper.cpp accepts.
const whisperSampleRate = 16000

// toMonoFloat mixes a decoded buffer down to mono samples in [-1, 1].
func toMonoFloat(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	full := float64(int(1) << (depth - 1))

	frames := len(buf.Data) / channels
	mono := make([]float64, frames)

	for i := 0; i < frames; i++ {
		var sum float64

		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}

		mono[i] = sum / float64(channels) / full
	}

	return mono
}

// resample converts samples between rates by zero-padding or truncating the
// spectrum. Whole utterances are short enough to transform in one go.
func resample(samples []float64, from, to int) []float64 {
	if from == to || len(samples) == 0 || from <= 0 || to <= 0 {
		return samples
	}

	n := len(samples)
	m := int(math.Round(float64(n) * float64(to) / float64(from)))

	if m < 1 {
		return nil
	}

	spectrum := fft.FFTReal(samples)
	resized := make([]complex128, m)

	half := n
	if m < half {
		half = m
	}
	half /= 2

	for k := 0; k < half; k++ {
		resized[k] = spectrum[k]
	}

	for k := 1; k < half; k++ {
		resized[m-k] = spectrum[n-k]
	}

	out := fft.IFFT(resized)
	scale := float64(m) / float64(n)

	result := make([]float64, m)
	for i := range out {
		result[i] = real(out[i]) * scale
	}

	return result
}

func toFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}

	return out
}
