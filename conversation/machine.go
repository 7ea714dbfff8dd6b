package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"audible-assistant/capture"
	"audible-assistant/device"
	"audible-assistant/meter"
	"audible-assistant/pipeline"
	"audible-assistant/playback"
	"audible-assistant/text_to_speech"

	"github.com/charmbracelet/log"
)

// Runner executes one processing turn.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, obs pipeline.Observer) ([]byte, error)
}

type Config struct {
	Recorder         device.Recorder
	Player           device.Player
	Pipeline         Runner
	Voice            text_to_speech.Voice
	Format           device.Format
	MeterInterval    time.Duration
	DecisionInterval time.Duration
	NewTicker        meter.TickerFunc
	Logger           *log.Logger
}

type commandKind int

const (
	commandStart commandKind = iota
	commandFinish
	commandCancel
	commandVoice
)

type command struct {
	kind  commandKind
	voice text_to_speech.Voice
	done  chan struct{}
}

type promptEvent struct {
	op     uint64
	prompt string
}

type replyEvent struct {
	op    uint64
	reply string
}

type resultEvent struct {
	op    uint64
	audio []byte
	err   error
}

type operation struct {
	id      uint64
	kind    string
	cancel  func()
	release func()
}

// Machine is the conversation controller. All state is owned by the Run
// goroutine; other goroutines talk to it through commands and events.
type Machine struct {
	recorder         device.Recorder
	player           device.Player
	pipeline         Runner
	format           device.Format
	meterInterval    time.Duration
	decisionInterval time.Duration
	newTicker        meter.TickerFunc
	logger           *log.Logger

	events  chan any
	stopped chan struct{}
	running atomic.Bool

	snapshot atomic.Pointer[Snapshot]
	updates  chan Snapshot

	// Owned by Run.
	ctx        context.Context
	mode       Mode
	err        error
	level      float64
	voice      text_to_speech.Voice
	transcript Transcript
	turn       int
	pending    *operation
	nextOp     uint64
	capture    *capture.Session
	playback   *playback.Session
}

func New(cfg *Config) (*Machine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Recorder == nil {
		return nil, fmt.Errorf("recorder is nil")
	}

	if cfg.Player == nil {
		return nil, fmt.Errorf("player is nil")
	}

	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is nil")
	}

	m := &Machine{
		recorder:         cfg.Recorder,
		player:           cfg.Player,
		pipeline:         cfg.Pipeline,
		format:           cfg.Format,
		meterInterval:    cfg.MeterInterval,
		decisionInterval: cfg.DecisionInterval,
		newTicker:        cfg.NewTicker,
		logger:           cfg.Logger,
		voice:            cfg.Voice,
		events:           make(chan any, 16),
		stopped:          make(chan struct{}),
		updates:          make(chan Snapshot, 1),
		turn:             -1,
	}

	if m.voice == "" {
		m.voice = text_to_speech.DefaultVoice
	}

	if m.logger == nil {
		m.logger = log.Default()
	}

	m.logger = m.logger.WithPrefix("conversation")

	m.publish()

	return m, nil
}

// Snapshot returns the latest published state.
func (m *Machine) Snapshot() Snapshot {
	return *m.snapshot.Load()
}

// Updates delivers snapshots as they change. Slow readers only see the most
// recent one.
func (m *Machine) Updates() <-chan Snapshot {
	return m.updates
}

// StartCapture begins recording when the machine is idle or showing an error.
func (m *Machine) StartCapture() {
	m.send(command{kind: commandStart})
}

// FinishCapture ends the recording early and hands it to the pipeline.
func (m *Machine) FinishCapture() {
	m.send(command{kind: commandFinish})
}

// Cancel abandons whatever is in progress and returns to idle.
func (m *Machine) Cancel() {
	m.send(command{kind: commandCancel})
}

// SelectVoice sets the voice used for the next synthesis. Callers only offer
// this while idle.
func (m *Machine) SelectVoice(v text_to_speech.Voice) {
	m.send(command{kind: commandVoice, voice: v})
}

// send queues a command and waits until Run has applied it.
func (m *Machine) send(c command) {
	c.done = make(chan struct{})

	select {
	case m.events <- c:
	case <-m.stopped:
		return
	}

	select {
	case <-c.done:
	case <-m.stopped:
	}
}

// post delivers an event from a pipeline goroutine unless its turn is over.
func (m *Machine) post(ctx context.Context, ev any) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}

// Run processes commands and session events until ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("machine already running")
	}

	defer close(m.stopped)
	defer m.shutdown()

	m.ctx = ctx

	m.logger.Info("ready", "voice", m.voice)

	for {
		var (
			captureLevels  <-chan float64
			captureDone    <-chan capture.Result
			playbackLevels <-chan float64
			playbackDone   <-chan struct{}
		)

		if m.capture != nil {
			captureLevels = m.capture.Levels()
			captureDone = m.capture.Finished()
		}

		if m.playback != nil {
			playbackLevels = m.playback.Levels()
			playbackDone = m.playback.Done()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.events:
			m.handle(ev)
		case level := <-captureLevels:
			m.level = level
		case <-captureDone:
			m.completeCapture()
		case level := <-playbackLevels:
			m.level = level
		case <-playbackDone:
			m.playback = nil
			m.reset()
			m.setMode(ModeIdle)
		}

		m.publish()
	}
}

func (m *Machine) handle(ev any) {
	switch ev := ev.(type) {
	case command:
		m.apply(ev)
		m.publish()
		close(ev.done)
	case promptEvent:
		if !m.current(ev.op) {
			return
		}

		m.turn = m.transcript.AppendPrompt(ev.prompt)
		m.logger.Info("prompt", "text", ev.prompt)
	case replyEvent:
		if !m.current(ev.op) {
			return
		}

		m.transcript.SetReply(m.turn, ev.reply)
		m.logger.Info("reply", "text", ev.reply)
	case resultEvent:
		if !m.current(ev.op) {
			m.logger.Debug("discarding stale result", "op", ev.op)
			return
		}

		m.retire()

		if ev.err != nil {
			m.fail(ev.err)
			return
		}

		m.play(ev.audio)
	}
}

func (m *Machine) apply(c command) {
	switch c.kind {
	case commandStart:
		m.startCapture()
	case commandFinish:
		if m.mode != ModeRecording {
			m.logger.Debug("finish ignored", "mode", m.mode)
			return
		}

		m.completeCapture()
	case commandCancel:
		if m.mode == ModeIdle {
			return
		}

		m.reset()
		m.err = nil
		m.setMode(ModeIdle)
	case commandVoice:
		if c.voice == m.voice {
			return
		}

		m.logger.Info("voice selected", "voice", c.voice)
		m.voice = c.voice
	}
}

func (m *Machine) startCapture() {
	if m.mode != ModeIdle && m.mode != ModeError {
		m.logger.Debug("start ignored", "mode", m.mode)
		return
	}

	m.reset()
	m.err = nil

	session, err := capture.New(&capture.Config{
		Recorder:         m.recorder,
		Format:           m.format,
		MeterInterval:    m.meterInterval,
		DecisionInterval: m.decisionInterval,
		NewTicker:        m.newTicker,
		Logger:           m.logger,
	})
	if err != nil {
		m.fail(err)
		return
	}

	m.setMode(ModeRecording)

	if err := session.Start(); err != nil {
		m.fail(err)
		return
	}

	m.capture = session
	m.begin("capture", session.Cancel, nil)
}

// completeCapture releases the microphone and moves the recording on to
// processing.
func (m *Machine) completeCapture() {
	session := m.capture
	m.capture = nil
	m.retire()
	m.level = 0

	audio, err := session.Finish()
	if err != nil {
		if errors.Is(err, capture.ErrInterrupted) {
			m.logger.Warn("recording interrupted")
			m.setMode(ModeIdle)

			return
		}

		m.fail(err)

		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	id := m.begin("pipeline", cancel, cancel)

	req := pipeline.Request{
		Audio:   audio,
		Voice:   m.voice,
		History: m.transcript.History(),
	}

	m.turn = -1
	m.setMode(ModeProcessing)

	go func() {
		audio, err := m.pipeline.Run(ctx, req, &observer{m: m, ctx: ctx, op: id})
		m.post(ctx, resultEvent{op: id, audio: audio, err: err})
	}()
}

func (m *Machine) play(audio []byte) {
	session, err := playback.New(&playback.Config{
		Player:        m.player,
		MeterInterval: m.meterInterval,
		NewTicker:     m.newTicker,
		Logger:        m.logger,
	})
	if err != nil {
		m.fail(err)
		return
	}

	m.setMode(ModePlaying)

	if err := session.Play(audio); err != nil {
		m.fail(err)
		return
	}

	m.playback = session
}

// fail releases everything and surfaces err.
func (m *Machine) fail(err error) {
	m.reset()
	m.err = err
	m.setMode(ModeError)
	m.logger.Error("turn failed", "err", err)
}

// reset cancels any pending work, releases both devices and clears the level.
func (m *Machine) reset() {
	if m.pending != nil {
		m.pending.cancel()
		m.pending = nil
	}

	if m.capture != nil {
		m.capture.Cancel()
		m.capture = nil
	}

	if m.playback != nil {
		m.playback.Cancel()
		m.playback = nil
	}

	m.level = 0
}

func (m *Machine) shutdown() {
	m.reset()
	m.setMode(ModeIdle)
	m.publish()
}

func (m *Machine) begin(kind string, cancel, release func()) uint64 {
	if m.pending != nil {
		panic(fmt.Sprintf("conversation: %s started while %s pending", kind, m.pending.kind))
	}

	m.nextOp++
	m.pending = &operation{id: m.nextOp, kind: kind, cancel: cancel, release: release}

	return m.nextOp
}

// retire drops the pending operation after it completed on its own.
func (m *Machine) retire() {
	if m.pending == nil {
		return
	}

	if m.pending.release != nil {
		m.pending.release()
	}

	m.pending = nil
}

func (m *Machine) current(op uint64) bool {
	return m.pending != nil && m.pending.id == op
}

func (m *Machine) setMode(next Mode) {
	if m.mode == next {
		return
	}

	m.logger.Info("state changed", "from", m.mode, "to", next)
	m.mode = next
}

func (m *Machine) publish() {
	s := &Snapshot{
		Mode:       m.mode,
		Level:      m.level,
		Transcript: m.transcript.Exchanges(),
		Voice:      m.voice,
		Voices:     text_to_speech.Voices(),
	}

	if m.err != nil {
		s.Error = m.err.Error()
	}

	if m.pending != nil {
		s.Pending = m.pending.kind
	}

	m.snapshot.Store(s)

	select {
	case m.updates <- *s:
		return
	default:
	}

	select {
	case <-m.updates:
	default:
	}

	select {
	case m.updates <- *s:
	default:
	}
}

// observer forwards pipeline progress to Run, tagged with its turn.
type observer struct {
	m   *Machine
	ctx context.Context
	op  uint64
}

func (o *observer) PromptTranscribed(prompt string) {
	o.m.post(o.ctx, promptEvent{op: o.op, prompt: prompt})
}

func (o *observer) ReplyGenerated(reply string) {
	o.m.post(o.ctx, replyEvent{op: o.op, reply: reply})
}
