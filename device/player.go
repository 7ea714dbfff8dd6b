package device

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"audible-assistant/meter"
	"audible-assistant/ring_buffer"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

type PlayerConfig struct {
	FramesPerBuffer int
	Logger          *log.Logger
}

// PortAudioPlayer plays WAV buffers on the default output device.
type PortAudioPlayer struct {
	framesPerBuffer int
	logger          *log.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	window   *ring_buffer.Buffer
	finished chan bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewPlayer(cfg *PlayerConfig) (*PortAudioPlayer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &PortAudioPlayer{
		framesPerBuffer: cfg.FramesPerBuffer,
		logger:          logger.WithPrefix("player"),
	}, nil
}

func (p *PortAudioPlayer) Start(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return errors.New("player already started")
	}

	buf, err := DecodeWAV(data)
	if err != nil {
		return err
	}

	if err = initAudio(); err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate

	frames := p.framesPerBuffer
	if frames <= 0 {
		frames = rate / 10
	}

	out := make([]int16, frames*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), frames, out)
	if err != nil {
		return err
	}

	if err = stream.Start(); err != nil {
		stream.Close()
		return err
	}

	p.stream = stream
	p.window = ring_buffer.New(len(out))
	p.finished = make(chan bool, 1)
	p.stop = make(chan struct{})

	p.wg.Add(1)
	go p.writeLoop(ToInt16(buf), out, p.stop, p.finished)

	p.logger.Debug("playing", "rate", rate, "channels", channels, "samples", len(buf.Data))

	return nil
}

func (p *PortAudioPlayer) writeLoop(samples, out []int16, stop <-chan struct{}, finished chan<- bool) {
	defer p.wg.Done()

	for offset := 0; offset < len(samples); offset += len(out) {
		select {
		case <-stop:
			return
		default:
		}

		n := copy(out, samples[offset:])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}

		err := p.stream.Write()
		if err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			p.logger.Error("writing output stream", "err", err)
			finished <- false

			return
		}

		p.window.Add(out[:n])
	}

	finished <- true
}

func (p *PortAudioPlayer) AveragePower() float64 {
	p.mu.Lock()
	window := p.window
	p.mu.Unlock()

	if window == nil {
		return meter.MinPower
	}

	return meter.AveragePower(window.Read())
}

func (p *PortAudioPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return
	}

	close(p.stop)
	p.wg.Wait()

	if err := p.stream.Stop(); err != nil {
		p.logger.Warn("stopping output stream", "err", err)
	}

	if err := p.stream.Close(); err != nil {
		p.logger.Warn("closing output stream", "err", err)
	}

	p.stream = nil
	p.window = nil
}

func (p *PortAudioPlayer) Finished() <-chan bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.finished
}

// DecodeWAV parses a complete WAV file into an integer PCM buffer.
func DecodeWAV(data []byte) (*audio.IntBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid wav data")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate < 1 {
		return nil, errors.New("wav has no usable format")
	}

	return buf, nil
}

// ToInt16 rescales a decoded buffer to 16-bit samples.
func ToInt16(buf *audio.IntBuffer) []int16 {
	shift := buf.SourceBitDepth - 16

	samples := make([]int16, len(buf.Data))

	for i, v := range buf.Data {
		switch {
		case buf.SourceBitDepth == 8:
			// 8-bit WAV is unsigned.
			v = (v - 128) << 8
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}

		samples[i] = int16(v)
	}

	return samples
}
