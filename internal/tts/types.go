package tts

import "context"

// Voice describes one synthesis voice offered by an engine.
type Voice struct {
	Name    string
	Lang    string
	Network bool // network/online quality rather than local/robotic
	Default bool
}

// SynthesisRequest asks an engine for one utterance. VoiceName may be empty,
// in which case the engine synthesizes with only the language hint.
type SynthesisRequest struct {
	Text      string
	VoiceName string
	Lang      string
	Rate      float64
}

// Engine enumerates voices and streams PCM audio for a request. Voice lists
// may populate lazily; callers re-query per utterance.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, req SynthesisRequest) (<-chan []byte, <-chan error)
}

// Sink consumes PCM bytes and performs delivery. Implementations should
// buffer internally; Reset drops queued audio immediately.
type Sink interface {
	WritePCM(pcm []byte)
	FlushTail()
	Reset()
}

// Callbacks carries the lifecycle hooks for one utterance. A superseded
// utterance fires none of its remaining callbacks.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(error)
}
