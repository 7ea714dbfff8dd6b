package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"audible-assistant/device"
	"audible-assistant/meter"

	"github.com/charmbracelet/log"
)

const (
	DefaultMeterInterval    = 200 * time.Millisecond
	DefaultDecisionInterval = 1600 * time.Millisecond
)

var (
	ErrCapture = errors.New("capture failed")
	// ErrInterrupted means the recorder gave up on its own.
	ErrInterrupted = errors.New("capture interrupted")
)

type Config struct {
	Recorder         device.Recorder
	Format           device.Format
	MeterInterval    time.Duration
	DecisionInterval time.Duration
	NewTicker        meter.TickerFunc
	Logger           *log.Logger
}

// Result is delivered on Finished when the session ends itself.
type Result struct {
	Audio []byte
	Err   error
}

type state int

const (
	stateIdle state = iota
	stateRecording
	stateFinished
	stateCancelled
)

// Session owns the microphone for a single recording turn.
type Session struct {
	recorder         device.Recorder
	format           device.Format
	meter            *meter.Meter
	meterInterval    time.Duration
	decisionInterval time.Duration
	newTicker        meter.TickerFunc
	logger           *log.Logger

	mu    sync.Mutex
	state state
	audio []byte
	err   error

	stop     chan struct{}
	levels   chan float64
	finished chan Result
	wg       sync.WaitGroup
}

func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Recorder == nil {
		return nil, fmt.Errorf("recorder is nil")
	}

	m, err := meter.New(cfg.Recorder, meter.CaptureDivisor)
	if err != nil {
		return nil, err
	}

	s := &Session{
		recorder:         cfg.Recorder,
		format:           cfg.Format,
		meter:            m,
		meterInterval:    cfg.MeterInterval,
		decisionInterval: cfg.DecisionInterval,
		newTicker:        cfg.NewTicker,
		logger:           cfg.Logger,
		stop:             make(chan struct{}),
		levels:           make(chan float64),
		finished:         make(chan Result, 1),
	}

	if s.format == (device.Format{}) {
		s.format = device.CaptureFormat
	}

	if s.meterInterval <= 0 {
		s.meterInterval = DefaultMeterInterval
	}

	if s.decisionInterval <= 0 {
		s.decisionInterval = DefaultDecisionInterval
	}

	if s.newTicker == nil {
		s.newTicker = meter.NewTicker
	}

	if s.logger == nil {
		s.logger = log.Default()
	}

	s.logger = s.logger.WithPrefix("capture")

	return s, nil
}

// Start acquires the microphone and starts the level and silence samplers.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdle {
		return fmt.Errorf("%w: session already used", ErrCapture)
	}

	if err := s.recorder.Start(s.format); err != nil {
		s.state = stateCancelled
		return fmt.Errorf("%w: %w", ErrCapture, err)
	}

	s.state = stateRecording

	levelTicker := s.newTicker(s.meterInterval)
	decisionTicker := s.newTicker(s.decisionInterval)

	s.wg.Add(3)
	go s.sampleLevels(levelTicker)
	go s.detectSilence(decisionTicker)
	go s.watchRecorder(s.recorder.Finished())

	s.logger.Debug("started", "rate", s.format.SampleRate, "decision", s.decisionInterval)

	return nil
}

// Levels carries UI-rate signal levels while recording.
func (s *Session) Levels() <-chan float64 {
	return s.levels
}

// Finished receives once if the session ends itself, either because silence
// was detected or because the recorder failed.
func (s *Session) Finished() <-chan Result {
	return s.finished
}

// Active reports whether the microphone is still held.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == stateRecording
}

// Finish stops recording and returns the captured audio. Calling it again, or
// on a session that never started, returns the last known result.
func (s *Session) Finish() ([]byte, error) {
	s.mu.Lock()
	if s.state == stateRecording {
		s.release()
	}
	audio, err := s.audio, s.err
	s.mu.Unlock()

	s.wg.Wait()

	return audio, err
}

// Cancel stops recording and discards whatever was captured.
func (s *Session) Cancel() {
	s.mu.Lock()
	switch s.state {
	case stateRecording:
		close(s.stop)

		if _, err := s.recorder.Stop(); err != nil {
			s.logger.Warn("stopping recorder", "err", err)
		}
	case stateIdle:
		close(s.stop)
	}
	s.state = stateCancelled
	s.audio = nil
	s.err = nil
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Debug("cancelled")
}

// release stops the recorder and keeps its buffer. s.mu must be held.
func (s *Session) release() {
	s.state = stateFinished
	close(s.stop)

	audio, err := s.recorder.Stop()
	if err != nil {
		s.err = fmt.Errorf("%w: %w", ErrCapture, err)
		return
	}

	s.audio = audio
}

func (s *Session) sample() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateRecording {
		return 0, false
	}

	return s.meter.Level(), true
}

func (s *Session) sampleLevels(t meter.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C():
			level, ok := s.sample()
			if !ok {
				return
			}

			select {
			case s.levels <- level:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *Session) detectSilence(t meter.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	detector := NewSilenceDetector()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C():
			level, ok := s.sample()
			if !ok {
				return
			}

			if detector.Observe(level) == Stop {
				s.logger.Debug("silence detected", "level", level)
				s.complete()

				return
			}
		}
	}
}

func (s *Session) complete() {
	s.mu.Lock()
	if s.state != stateRecording {
		s.mu.Unlock()
		return
	}
	s.release()
	result := Result{Audio: s.audio, Err: s.err}
	s.mu.Unlock()

	s.finished <- result
}

func (s *Session) watchRecorder(finished <-chan bool) {
	defer s.wg.Done()

	select {
	case <-s.stop:
	case ok := <-finished:
		if ok {
			return
		}

		s.mu.Lock()
		if s.state != stateRecording {
			s.mu.Unlock()
			return
		}
		s.state = stateCancelled
		close(s.stop)
		if _, err := s.recorder.Stop(); err != nil {
			s.logger.Warn("stopping recorder", "err", err)
		}
		s.audio = nil
		s.err = ErrInterrupted
		s.mu.Unlock()

		s.logger.Warn("recorder finished unsuccessfully")
		s.finished <- Result{Err: ErrInterrupted}
	}
}
