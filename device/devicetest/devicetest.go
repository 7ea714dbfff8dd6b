// Package devicetest provides in-memory audio devices and a manually driven
// ticker clock for exercising sessions without hardware.
package devicetest

import (
	"sync"
	"time"

	"audible-assistant/device"
	"audible-assistant/meter"
)

type Recorder struct {
	mu       sync.Mutex
	power    float64
	audio    []byte
	startErr error
	stopErr  error
	active   bool
	format   device.Format
	starts   int
	stops    int
	finished chan bool
}

// NewRecorder returns a recorder whose Stop yields audio.
func NewRecorder(audio []byte) *Recorder {
	return &Recorder{
		power: meter.MinPower,
		audio: audio,
	}
}

func (r *Recorder) Start(format device.Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.starts++

	if r.startErr != nil {
		return r.startErr
	}

	r.active = true
	r.format = format
	r.finished = make(chan bool, 1)

	return nil
}

func (r *Recorder) AveragePower() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.power
}

func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stops++

	if !r.active {
		return nil, nil
	}

	r.active = false

	if r.stopErr != nil {
		return nil, r.stopErr
	}

	return r.audio, nil
}

func (r *Recorder) Finished() <-chan bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.finished
}

// SetPower sets the dBFS reading returned by AveragePower.
func (r *Recorder) SetPower(power float64) {
	r.mu.Lock()
	r.power = power
	r.mu.Unlock()
}

func (r *Recorder) FailStart(err error) {
	r.mu.Lock()
	r.startErr = err
	r.mu.Unlock()
}

func (r *Recorder) FailStop(err error) {
	r.mu.Lock()
	r.stopErr = err
	r.mu.Unlock()
}

// Interrupt simulates the device ending the recording unsuccessfully.
func (r *Recorder) Interrupt() {
	r.mu.Lock()
	ch := r.finished
	r.mu.Unlock()

	if ch != nil {
		ch <- false
	}
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

func (r *Recorder) Format() device.Format {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.format
}

func (r *Recorder) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.starts
}

type Player struct {
	mu       sync.Mutex
	power    float64
	startErr error
	active   bool
	played   [][]byte
	stops    int
	finished chan bool
}

func NewPlayer() *Player {
	return &Player{power: meter.MinPower}
}

func (p *Player) Start(audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startErr != nil {
		return p.startErr
	}

	p.active = true
	p.played = append(p.played, audio)
	p.finished = make(chan bool, 1)

	return nil
}

func (p *Player) AveragePower() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.power
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stops++
	p.active = false
}

func (p *Player) Finished() <-chan bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.finished
}

// Complete simulates playback reaching the end of the buffer.
func (p *Player) Complete() {
	p.mu.Lock()
	ch := p.finished
	p.mu.Unlock()

	if ch != nil {
		ch <- true
	}
}

func (p *Player) SetPower(power float64) {
	p.mu.Lock()
	p.power = power
	p.mu.Unlock()
}

func (p *Player) FailStart(err error) {
	p.mu.Lock()
	p.startErr = err
	p.mu.Unlock()
}

func (p *Player) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

func (p *Player) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([][]byte(nil), p.played...)
}

func (p *Player) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stops
}

// Clock hands out tickers that only fire when Tick is called.
type Clock struct {
	mu      sync.Mutex
	tickers []*Ticker
}

func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) NewTicker(d time.Duration) meter.Ticker {
	t := &Ticker{
		interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}

	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()

	return t
}

// Tick fires every live ticker with interval d, blocking until each tick is
// received. It returns the number of tickers fired.
func (c *Clock) Tick(d time.Duration) int {
	fired := 0

	for _, t := range c.live(d) {
		select {
		case t.c <- time.Now():
			fired++
		case <-t.stopped:
		}
	}

	return fired
}

// Live counts the tickers with interval d that have not been stopped.
func (c *Clock) Live(d time.Duration) int {
	return len(c.live(d))
}

func (c *Clock) live(d time.Duration) []*Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	var live []*Ticker

	for _, t := range c.tickers {
		if t.interval == d && !t.isStopped() {
			live = append(live, t)
		}
	}

	return live
}

type Ticker struct {
	interval time.Duration
	c        chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

func (t *Ticker) C() <-chan time.Time {
	return t.c
}

func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *Ticker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
