package device

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"audible-assistant/meter"
	"audible-assistant/ring_buffer"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

type RecorderConfig struct {
	FileSys afero.Fs
	// Path of the capture file. It is overwritten on every Start.
	Path string
	// FramesPerBuffer defaults to a tenth of a second of audio.
	FramesPerBuffer int
	Logger          *log.Logger
}

// PortAudioRecorder records the default input device into a WAV file.
type PortAudioRecorder struct {
	fileSys         afero.Fs
	path            string
	framesPerBuffer int
	logger          *log.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	writer   *wave.Writer
	window   *ring_buffer.Buffer
	finished chan bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRecorder(cfg *RecorderConfig) (*PortAudioRecorder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &PortAudioRecorder{
		fileSys:         cfg.FileSys,
		path:            cfg.Path,
		framesPerBuffer: cfg.FramesPerBuffer,
		logger:          logger.WithPrefix("recorder"),
	}, nil
}

func (r *PortAudioRecorder) Start(format Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return errors.New("recorder already started")
	}

	if format.BitsPerSample != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitsPerSample)
	}

	if err := initAudio(); err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}

	if err := r.fileSys.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	waveFile, err := r.fileSys.Create(r.path)
	if err != nil {
		return err
	}

	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           waveFile,
		Channel:       format.Channels,
		SampleRate:    format.SampleRate,
		BitsPerSample: format.BitsPerSample,
	})
	if err != nil {
		waveFile.Close()
		return err
	}

	frames := r.framesPerBuffer
	if frames <= 0 {
		frames = format.SampleRate / 10
	}

	in := make([]int16, frames*format.Channels)

	stream, err := portaudio.OpenDefaultStream(format.Channels, 0, float64(format.SampleRate), frames, in)
	if err != nil {
		waveWriter.Close()
		return err
	}

	if err = stream.Start(); err != nil {
		stream.Close()
		waveWriter.Close()
		return err
	}

	r.stream = stream
	r.writer = waveWriter
	r.window = ring_buffer.New(len(in))
	r.finished = make(chan bool, 1)
	r.stop = make(chan struct{})

	r.wg.Add(1)
	go r.readLoop(in, r.stop, r.finished)

	r.logger.Debug("recording", "path", r.path, "rate", format.SampleRate)

	return nil
}

func (r *PortAudioRecorder) readLoop(in []int16, stop <-chan struct{}, finished chan<- bool) {
	defer r.wg.Done()

	for {
		select {
		case <-stop:
			return
		default:
		}

		err := r.stream.Read()
		if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			r.logger.Error("reading input stream", "err", err)
			finished <- false

			return
		}

		if _, err = r.writer.WriteSample16(in); err != nil {
			r.logger.Error("writing capture file", "err", err)
			finished <- false

			return
		}

		r.window.Add(in)
	}
}

func (r *PortAudioRecorder) AveragePower() float64 {
	r.mu.Lock()
	window := r.window
	r.mu.Unlock()

	if window == nil {
		return meter.MinPower
	}

	return meter.AveragePower(window.Read())
}

// Stop ends the recording and returns the contents of the capture file.
func (r *PortAudioRecorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil, nil
	}

	close(r.stop)
	r.wg.Wait()

	var errs []error

	if err := r.stream.Stop(); err != nil {
		errs = append(errs, err)
	}

	if err := r.stream.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := r.writer.Close(); err != nil {
		errs = append(errs, err)
	}

	r.stream = nil
	r.writer = nil
	r.window = nil

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return afero.ReadFile(r.fileSys, r.path)
}

func (r *PortAudioRecorder) Finished() <-chan bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.finished
}
