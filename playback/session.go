package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"audible-assistant/device"
	"audible-assistant/meter"

	"github.com/charmbracelet/log"
)

const DefaultMeterInterval = 200 * time.Millisecond

var ErrPlayback = errors.New("playback failed")

type Config struct {
	Player        device.Player
	MeterInterval time.Duration
	NewTicker     meter.TickerFunc
	Logger        *log.Logger
}

type state int

const (
	stateIdle state = iota
	statePlaying
	stateDone
	stateCancelled
)

// Session owns the speaker for one reply.
type Session struct {
	player        device.Player
	meter         *meter.Meter
	meterInterval time.Duration
	newTicker     meter.TickerFunc
	logger        *log.Logger

	mu    sync.Mutex
	state state

	stop   chan struct{}
	levels chan float64
	done   chan struct{}
	wg     sync.WaitGroup
}

func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Player == nil {
		return nil, fmt.Errorf("player is nil")
	}

	m, err := meter.New(cfg.Player, meter.PlaybackDivisor)
	if err != nil {
		return nil, err
	}

	s := &Session{
		player:        cfg.Player,
		meter:         m,
		meterInterval: cfg.MeterInterval,
		newTicker:     cfg.NewTicker,
		logger:        cfg.Logger,
		stop:          make(chan struct{}),
		levels:        make(chan float64),
		done:          make(chan struct{}, 1),
	}

	if s.meterInterval <= 0 {
		s.meterInterval = DefaultMeterInterval
	}

	if s.newTicker == nil {
		s.newTicker = meter.NewTicker
	}

	if s.logger == nil {
		s.logger = log.Default()
	}

	s.logger = s.logger.WithPrefix("playback")

	return s, nil
}

// Play starts playing audio. Completion is signalled on Done.
func (s *Session) Play(audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdle {
		return fmt.Errorf("%w: session already used", ErrPlayback)
	}

	if err := s.player.Start(audio); err != nil {
		s.state = stateCancelled
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	s.state = statePlaying

	t := s.newTicker(s.meterInterval)

	s.wg.Add(2)
	go s.sampleLevels(t)
	go s.watchPlayer(s.player.Finished())

	s.logger.Debug("started", "bytes", len(audio))

	return nil
}

func (s *Session) Levels() <-chan float64 {
	return s.levels
}

// Done receives once when playback reaches the end. It never fires for a
// cancelled session.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == statePlaying
}

// Cancel stops playback and releases the speaker.
func (s *Session) Cancel() {
	s.mu.Lock()
	switch s.state {
	case statePlaying:
		close(s.stop)
		s.player.Stop()
	case stateIdle:
		close(s.stop)
	}
	if s.state != stateDone {
		s.state = stateCancelled
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Wait blocks until the session's goroutines have exited.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) sampleLevels(t meter.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C():
			s.mu.Lock()
			if s.state != statePlaying {
				s.mu.Unlock()
				return
			}
			level := s.meter.Level()
			s.mu.Unlock()

			select {
			case s.levels <- level:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *Session) watchPlayer(finished <-chan bool) {
	defer s.wg.Done()

	select {
	case <-s.stop:
	case ok := <-finished:
		s.mu.Lock()
		if s.state != statePlaying {
			s.mu.Unlock()
			return
		}
		s.state = stateDone
		close(s.stop)
		s.player.Stop()
		s.mu.Unlock()

		if !ok {
			s.logger.Warn("player finished unsuccessfully")
		}

		s.done <- struct{}{}
	}
}
