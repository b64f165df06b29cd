package ivr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors for the IVR surface. Handlers map these to client
// errors; everything else is a server error.
var (
	// ErrSessionNotFound is returned when a request references a
	// session ID the store does not hold (unknown or evicted).
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoAudioReceived is returned when a recording submission
	// carries no audio bytes.
	ErrNoAudioReceived = errors.New("no audio received")
)

// Action tells the caller-facing client what to do next: play the
// prompt, or play it and then capture a recording.
type Action string

const (
	ActionPlay   Action = "PLAY"
	ActionRecord Action = "RECORD"
)

// Menu option digits.
const (
	optionSales   = "1"
	optionSupport = "2"
)

// Prompt texts spoken to the caller.
const (
	promptWelcome = "Welcome to Lean IVR. Press 1 for Sales, or press 2 for Support."
	promptSales   = "Connecting you to sales. An agent will call you back shortly. Goodbye."
	promptSupport = "Connecting you to support. Please describe your issue after the tone."
	promptInvalid = "Invalid option. Press 1 for Sales, or press 2 for Support."
	promptThanks  = "Thank you. Your response has been recorded. Goodbye."
)

// Synthesizer converts a text prompt into a retrievable audio URL.
// Implementations must bound their own wait and return an error rather
// than panic; callers treat any error as a degraded (text-only) prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// RecordingSink stores a captured audio blob durably and returns the
// artifact path.
type RecordingSink interface {
	Store(ctx context.Context, sessionID string, audio []byte, mimeHint string) (string, error)
}

// Instruction is the machine's reply to the client: the prompt text,
// an audio URL when synthesis succeeded (empty otherwise), and the
// next action the client must take.
type Instruction struct {
	SessionID string
	Prompt    string
	AudioURL  string
	Action    Action
}

// Machine owns the authoritative mapping from (session state, input)
// to (next state, prompt, next action). It is the session store's only
// writer.
type Machine struct {
	store  *Store
	tts    Synthesizer
	sink   RecordingSink
	logger *slog.Logger
}

// NewMachine creates a state machine over the given store and adapters.
func NewMachine(store *Store, tts Synthesizer, sink RecordingSink, logger *slog.Logger) *Machine {
	return &Machine{
		store:  store,
		tts:    tts,
		sink:   sink,
		logger: logger.With("subsystem", "ivr"),
	}
}

// StartSession allocates a new session at the main menu and returns the
// welcome instruction. Session allocation never fails; if synthesis
// fails the instruction carries an empty audio URL and the caller falls
// back to the prompt text.
func (m *Machine) StartSession(ctx context.Context) (*Instruction, error) {
	sess := m.store.Create()

	m.logger.Info("ivr session started", "session_id", sess.ID)

	return &Instruction{
		SessionID: sess.ID,
		Prompt:    promptWelcome,
		AudioURL:  m.synthesize(ctx, sess.ID, promptWelcome),
		Action:    ActionPlay,
	}, nil
}

// SubmitOption applies a keypad option to the session and returns the
// next instruction. Option "1" routes to sales, option "2" routes to
// support and demands a recording; anything else keeps the caller at
// the main menu with an invalid-option prompt and clears the
// awaiting-recording flag. Unknown session IDs fail with
// ErrSessionNotFound and mutate nothing.
func (m *Machine) SubmitOption(ctx context.Context, sessionID, option string) (*Instruction, error) {
	var prompt string
	var action Action

	sess, err := m.store.Update(sessionID, func(s *Session) {
		switch option {
		case optionSales:
			s.CurrentMenu = MenuSales
			s.AwaitsRecording = false
			prompt = promptSales
			action = ActionPlay
		case optionSupport:
			s.CurrentMenu = MenuSupport
			s.AwaitsRecording = true
			prompt = promptSupport
			action = ActionRecord
		default:
			s.CurrentMenu = MenuMain
			s.AwaitsRecording = false
			prompt = promptInvalid
			action = ActionPlay
		}
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("ivr option applied",
		"session_id", sessionID,
		"option", option,
		"menu", sess.CurrentMenu,
		"awaits_recording", sess.AwaitsRecording,
	)

	return &Instruction{
		SessionID: sessionID,
		Prompt:    prompt,
		AudioURL:  m.synthesize(ctx, sessionID, prompt),
		Action:    action,
	}, nil
}

// SubmitRecording stores the caller's captured audio and returns the
// fixed acknowledgment instruction. The flow never loops back into
// recording, so the action is always PLAY. Empty submissions fail with
// ErrNoAudioReceived before the sink is touched. A recording is
// accepted for any live session whether or not one was requested; the
// server reacts to what the client sends, not to an assumed playback
// state.
func (m *Machine) SubmitRecording(ctx context.Context, sessionID string, audio []byte, mimeHint string) (*Instruction, error) {
	if len(audio) == 0 {
		return nil, ErrNoAudioReceived
	}

	if _, ok := m.store.Get(sessionID); !ok {
		return nil, ErrSessionNotFound
	}

	path, err := m.sink.Store(ctx, sessionID, audio, mimeHint)
	if err != nil {
		return nil, fmt.Errorf("storing recording: %w", err)
	}

	sess, err := m.store.Update(sessionID, func(s *Session) {
		s.AwaitsRecording = false
		s.Status = StatusCompleted
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("ivr recording captured",
		"session_id", sessionID,
		"bytes", len(audio),
		"path", path,
		"status", sess.Status,
	)

	return &Instruction{
		SessionID: sessionID,
		Prompt:    promptThanks,
		AudioURL:  m.synthesize(ctx, sessionID, promptThanks),
		Action:    ActionPlay,
	}, nil
}

// synthesize asks the adapter for prompt audio. Synthesis failures
// never abort the enclosing operation; the session still advances and
// the instruction simply carries no audio URL.
func (m *Machine) synthesize(ctx context.Context, sessionID, text string) string {
	url, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		m.logger.Warn("tts synthesis failed, degrading to text-only prompt",
			"session_id", sessionID,
			"error", err,
		)
		return ""
	}
	return url
}
