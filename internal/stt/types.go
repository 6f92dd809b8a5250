package stt

import (
	"context"
	"fmt"
)

// Kind classifies recognition failures. Each kind has its own handling
// policy: no-speech is ignored silently, everything else carries a
// user-actionable message.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPermission
	KindNoSpeech
	KindNetwork
	KindAborted
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindPermission:
		return "permission"
	case KindNoSpeech:
		return "no-speech"
	case KindNetwork:
		return "network"
	case KindAborted:
		return "aborted"
	}
	return "unknown"
}

// Error is a classified recognition failure. Msg is what the user should see.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stt %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("stt %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	msgUnsupported = "Voice input is not available: no speech recognition engine is configured."
	msgPermission  = "Microphone access was denied. Enable microphone permission for this app in your system settings and try again."
	msgNetwork     = "Speech recognition needs a working network connection. Check your connection and try again."
)

func errUnsupported() *Error {
	return &Error{Kind: KindUnsupported, Msg: msgUnsupported}
}

func errPermission(err error) *Error {
	return &Error{Kind: KindPermission, Msg: msgPermission, Err: err}
}

func errNoSpeech() *Error {
	return &Error{Kind: KindNoSpeech, Msg: "no speech detected"}
}

func errNetwork(err error) *Error {
	return &Error{Kind: KindNetwork, Msg: msgNetwork, Err: err}
}

// classify wraps arbitrary session errors as network failures unless they are
// already classified.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return errNetwork(err)
}

// Session is one single-utterance capture. Transcript yields at most one
// final transcript and then closes; Err yields at most one classified error
// and then closes. A session is never reused after either channel closes.
type Session interface {
	// Feed streams PCM 16kHz little-endian mono captured from the client.
	Feed(pcm []byte) error
	Transcript() <-chan string
	Err() <-chan error
	// Stop requests early finalization with whatever was heard so far.
	Stop()
	// Abort tears the session down without emitting a transcript.
	Abort()
}

// Recognizer opens fresh capture sessions.
type Recognizer interface {
	Capture(ctx context.Context, lang string) (Session, error)
}

// Events carries the listener's lifecycle callbacks.
type Events struct {
	OnTranscript func(text string)
	OnError      func(err *Error)
	OnEnd        func()
}
