package ivr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeSynth struct {
	err   error
	calls int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "/audio/tts/fake.mp3", nil
}

type fakeSink struct {
	err       error
	calls     int
	lastAudio []byte
}

func (f *fakeSink) Store(ctx context.Context, sessionID string, audio []byte, mimeHint string) (string, error) {
	f.calls++
	f.lastAudio = audio
	if f.err != nil {
		return "", f.err
	}
	return sessionID + ".webm", nil
}

func newTestMachine(synth *fakeSynth, sink *fakeSink) (*Machine, *Store) {
	store := NewStore(time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMachine(store, synth, sink, logger), store
}

func TestStartSession(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})

	in, err := m.StartSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SessionID == "" {
		t.Fatal("expected a session ID")
	}
	if in.Action != ActionPlay {
		t.Errorf("expected action %q, got %q", ActionPlay, in.Action)
	}
	if in.AudioURL == "" {
		t.Error("expected an audio URL when synthesis succeeds")
	}
	if !strings.Contains(in.Prompt, "Press 1 for Sales") {
		t.Errorf("unexpected welcome prompt: %q", in.Prompt)
	}

	sess, ok := store.Get(in.SessionID)
	if !ok {
		t.Fatal("expected session in store")
	}
	if sess.CurrentMenu != MenuMain || sess.Status != StatusActive {
		t.Errorf("unexpected initial state: menu=%q status=%q", sess.CurrentMenu, sess.Status)
	}
}

func TestStartSessionSynthesisFailure(t *testing.T) {
	m, _ := newTestMachine(&fakeSynth{err: errors.New("provider down")}, &fakeSink{})

	in, err := m.StartSession(context.Background())
	if err != nil {
		t.Fatalf("synthesis failure must not fail session start: %v", err)
	}
	if in.AudioURL != "" {
		t.Errorf("expected empty audio URL, got %q", in.AudioURL)
	}
	if in.Action != ActionPlay {
		t.Errorf("expected action %q, got %q", ActionPlay, in.Action)
	}
}

func TestSubmitOptionSales(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})
	start, _ := m.StartSession(context.Background())

	in, err := m.SubmitOption(context.Background(), start.SessionID, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionPlay {
		t.Errorf("expected action %q, got %q", ActionPlay, in.Action)
	}

	sess, _ := store.Get(start.SessionID)
	if sess.CurrentMenu != MenuSales {
		t.Errorf("expected menu %q, got %q", MenuSales, sess.CurrentMenu)
	}
	if sess.AwaitsRecording {
		t.Error("sales path must not await a recording")
	}
}

func TestSubmitOptionSupport(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})
	start, _ := m.StartSession(context.Background())

	in, err := m.SubmitOption(context.Background(), start.SessionID, "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionRecord {
		t.Errorf("expected action %q, got %q", ActionRecord, in.Action)
	}

	sess, _ := store.Get(start.SessionID)
	if sess.CurrentMenu != MenuSupport {
		t.Errorf("expected menu %q, got %q", MenuSupport, sess.CurrentMenu)
	}
	if !sess.AwaitsRecording {
		t.Error("support path must await a recording")
	}
}

func TestSubmitOptionInvalidResetsToMain(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})
	start, _ := m.StartSession(context.Background())

	// Move off the main menu first so the reset is observable.
	if _, err := m.SubmitOption(context.Background(), start.SessionID, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in, err := m.SubmitOption(context.Background(), start.SessionID, "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionPlay {
		t.Errorf("expected action %q, got %q", ActionPlay, in.Action)
	}
	if !strings.Contains(in.Prompt, "Invalid option") {
		t.Errorf("unexpected prompt: %q", in.Prompt)
	}

	sess, _ := store.Get(start.SessionID)
	if sess.CurrentMenu != MenuMain {
		t.Errorf("expected reset to menu %q, got %q", MenuMain, sess.CurrentMenu)
	}
	if sess.AwaitsRecording {
		t.Error("invalid option must clear the recording flag")
	}
}

func TestSubmitOptionUnknownSession(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})

	_, err := m.SubmitOption(context.Background(), "missing", "1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("unknown session must not create state")
	}
}

func TestSubmitRecordingEmpty(t *testing.T) {
	sink := &fakeSink{}
	m, _ := newTestMachine(&fakeSynth{}, sink)
	start, _ := m.StartSession(context.Background())

	_, err := m.SubmitRecording(context.Background(), start.SessionID, nil, "audio/webm")
	if !errors.Is(err, ErrNoAudioReceived) {
		t.Fatalf("expected ErrNoAudioReceived, got %v", err)
	}
	if sink.calls != 0 {
		t.Error("empty upload must not reach the sink")
	}
}

func TestSubmitRecordingUnknownSession(t *testing.T) {
	sink := &fakeSink{}
	m, _ := newTestMachine(&fakeSynth{}, sink)

	_, err := m.SubmitRecording(context.Background(), "missing", []byte{1, 2, 3}, "audio/webm")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if sink.calls != 0 {
		t.Error("unknown session must not reach the sink")
	}
}

func TestSubmitRecordingSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	m, store := newTestMachine(&fakeSynth{}, sink)
	start, _ := m.StartSession(context.Background())

	_, err := m.SubmitRecording(context.Background(), start.SessionID, []byte{1}, "audio/webm")
	if err == nil {
		t.Fatal("expected sink failure to propagate")
	}

	// Failed storage must not complete the session.
	sess, _ := store.Get(start.SessionID)
	if sess.Status != StatusActive {
		t.Errorf("expected status %q after sink failure, got %q", StatusActive, sess.Status)
	}
}

func TestSubmitRecordingCompletesSession(t *testing.T) {
	sink := &fakeSink{}
	m, store := newTestMachine(&fakeSynth{}, sink)
	start, _ := m.StartSession(context.Background())

	if _, err := m.SubmitOption(context.Background(), start.SessionID, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audio := []byte{1, 2, 3, 4, 5}
	in, err := m.SubmitRecording(context.Background(), start.SessionID, audio, "audio/webm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionPlay {
		t.Errorf("expected action %q, got %q", ActionPlay, in.Action)
	}
	if sink.calls != 1 {
		t.Errorf("expected 1 sink call, got %d", sink.calls)
	}
	if len(sink.lastAudio) != len(audio) {
		t.Errorf("expected %d bytes at sink, got %d", len(audio), len(sink.lastAudio))
	}

	sess, _ := store.Get(start.SessionID)
	if sess.Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, sess.Status)
	}
	if sess.AwaitsRecording {
		t.Error("recording flag must clear after capture")
	}
}

func TestSessionsDoNotInterfere(t *testing.T) {
	m, store := newTestMachine(&fakeSynth{}, &fakeSink{})

	a, _ := m.StartSession(context.Background())
	b, _ := m.StartSession(context.Background())

	if _, err := m.SubmitOption(context.Background(), a.SessionID, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sessB, _ := store.Get(b.SessionID)
	if sessB.CurrentMenu != MenuMain || sessB.AwaitsRecording {
		t.Errorf("second session mutated: menu=%q awaits=%v", sessB.CurrentMenu, sessB.AwaitsRecording)
	}
}
