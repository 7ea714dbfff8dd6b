package capture

import (
	"errors"
	"math"
	"testing"
	"time"

	"audible-assistant/device"
	"audible-assistant/device/devicetest"
)

const (
	meterEvery    = 200 * time.Millisecond
	decisionEvery = 1600 * time.Millisecond
)

func newTestSession(t *testing.T, rec *devicetest.Recorder) (*Session, *devicetest.Clock) {
	t.Helper()

	clock := devicetest.NewClock()

	s, err := New(&Config{
		Recorder:         rec,
		MeterInterval:    meterEvery,
		DecisionInterval: decisionEvery,
		NewTicker:        clock.NewTicker,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s, clock
}

func waitResult(t *testing.T, s *Session) Result {
	t.Helper()

	select {
	case r := <-s.Finished():
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for capture to finish")
	}

	return Result{}
}

func TestSession_SilenceFinishesRecording(t *testing.T) {
	t.Run("two quiet decision samples hand back the captured audio", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("captured"))
		s, clock := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		if rec.Format() != device.CaptureFormat {
			t.Errorf("expected capture format %+v, got %+v", device.CaptureFormat, rec.Format())
		}

		// -45 dBFS normalizes to 0.1
		rec.SetPower(-45)
		clock.Tick(decisionEvery)
		clock.Tick(decisionEvery)

		r := waitResult(t, s)
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}

		if string(r.Audio) != "captured" {
			t.Errorf("expected captured audio, got %q", r.Audio)
		}

		audio, err := s.Finish()
		if err != nil || string(audio) != "captured" {
			t.Errorf("expected Finish to return the same buffer, got %q, %v", audio, err)
		}

		if rec.Active() || s.Active() {
			t.Errorf("expected microphone released")
		}

		if n := clock.Live(meterEvery) + clock.Live(decisionEvery); n != 0 {
			t.Errorf("expected no live samplers, got %d", n)
		}
	})

	t.Run("speech keeps the recording open", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("captured"))
		s, clock := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		rec.SetPower(-5)
		for i := 0; i < 5; i++ {
			clock.Tick(decisionEvery)
		}

		select {
		case r := <-s.Finished():
			t.Fatalf("unexpected finish: %+v", r)
		case <-time.After(50 * time.Millisecond):
		}

		if !s.Active() {
			t.Errorf("expected session still recording")
		}

		s.Cancel()
	})
}

func TestSession_Levels(t *testing.T) {
	t.Run("the UI sampler publishes normalized levels", func(t *testing.T) {
		rec := devicetest.NewRecorder(nil)
		s, clock := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		defer s.Cancel()

		rec.SetPower(-25)

		go clock.Tick(meterEvery)

		select {
		case level := <-s.Levels():
			if math.Abs(level-0.5) > 1e-9 {
				t.Errorf("expected 0.5, got %v", level)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for a level")
		}
	})
}

func TestSession_Cancel(t *testing.T) {
	t.Run("cancel releases the microphone and stops both samplers", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("captured"))
		s, clock := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		rec.SetPower(-45)
		clock.Tick(decisionEvery)

		s.Cancel()

		if rec.Active() || s.Active() {
			t.Errorf("expected microphone released")
		}

		if n := clock.Live(meterEvery) + clock.Live(decisionEvery); n != 0 {
			t.Errorf("expected no live samplers, got %d", n)
		}

		if fired := clock.Tick(decisionEvery); fired != 0 {
			t.Errorf("expected no sampler to receive ticks, %d did", fired)
		}

		select {
		case r := <-s.Finished():
			t.Errorf("cancelled session must not hand audio downstream, got %+v", r)
		default:
		}

		audio, err := s.Finish()
		if audio != nil || err != nil {
			t.Errorf("expected nothing from Finish after Cancel, got %q, %v", audio, err)
		}
	})

	t.Run("cancel before start is harmless", func(t *testing.T) {
		rec := devicetest.NewRecorder(nil)
		s, _ := newTestSession(t, rec)

		s.Cancel()

		if err := s.Start(); !errors.Is(err, ErrCapture) {
			t.Errorf("expected ErrCapture starting a cancelled session, got %v", err)
		}
	})
}

func TestSession_Finish(t *testing.T) {
	t.Run("finish is idempotent", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("abc"))
		s, _ := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		first, err := s.Finish()
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}

		second, err := s.Finish()
		if err != nil {
			t.Fatalf("second Finish: %v", err)
		}

		if string(first) != "abc" || string(second) != "abc" {
			t.Errorf("expected abc twice, got %q and %q", first, second)
		}

		select {
		case r := <-s.Finished():
			t.Errorf("caller-driven finish must not signal Finished, got %+v", r)
		default:
		}
	})

	t.Run("finish before start returns nothing", func(t *testing.T) {
		s, _ := newTestSession(t, devicetest.NewRecorder([]byte("abc")))

		audio, err := s.Finish()
		if audio != nil || err != nil {
			t.Errorf("expected empty result, got %q, %v", audio, err)
		}
	})

	t.Run("a failed read-back is a capture error", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("abc"))
		rec.FailStop(errors.New("disk gone"))
		s, _ := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		if _, err := s.Finish(); !errors.Is(err, ErrCapture) {
			t.Errorf("expected ErrCapture, got %v", err)
		}
	})
}

func TestSession_StartFailure(t *testing.T) {
	t.Run("hardware refusal is a capture error and starts no sampler", func(t *testing.T) {
		rec := devicetest.NewRecorder(nil)
		rec.FailStart(errors.New("permission denied"))
		s, clock := newTestSession(t, rec)

		err := s.Start()
		if !errors.Is(err, ErrCapture) {
			t.Fatalf("expected ErrCapture, got %v", err)
		}

		if n := clock.Live(meterEvery) + clock.Live(decisionEvery); n != 0 {
			t.Errorf("expected no samplers, got %d", n)
		}

		s.Cancel()
	})
}

func TestSession_Interrupted(t *testing.T) {
	t.Run("a recorder failure ends the session without audio", func(t *testing.T) {
		rec := devicetest.NewRecorder([]byte("abc"))
		s, clock := newTestSession(t, rec)

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		rec.Interrupt()

		r := waitResult(t, s)
		if !errors.Is(r.Err, ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", r.Err)
		}

		if r.Audio != nil {
			t.Errorf("expected no audio, got %q", r.Audio)
		}

		s.Cancel()

		if n := clock.Live(meterEvery) + clock.Live(decisionEvery); n != 0 {
			t.Errorf("expected no live samplers, got %d", n)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("config is validated", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Errorf("expected error for nil config")
		}

		if _, err := New(&Config{}); err == nil {
			t.Errorf("expected error for missing recorder")
		}
	})
}
