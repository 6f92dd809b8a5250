package tts

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// State of the single playback slot.
type State int

const (
	StateIdle State = iota
	StatePlaying
)

// Speaker owns the single playback slot: at most one utterance is active at a
// time. Speak cancels whatever is playing before starting (the superseded
// utterance's OnEnd never fires); Stop cancels unconditionally and is safe
// when idle.
type Speaker struct {
	engine   Engine
	sink     Sink
	rules    Ruleset
	langHint string

	// Rate by voice class: network/natural voices sound rushed at the default
	// rate, standard voices do not. Tunable.
	NaturalRate  float64
	StandardRate float64

	mu     sync.Mutex
	state  State
	gen    int
	cancel context.CancelFunc
}

func NewSpeaker(engine Engine, sink Sink, rules Ruleset, langHint string) *Speaker {
	return &Speaker{
		engine:       engine,
		sink:         sink,
		rules:        rules,
		langHint:     langHint,
		NaturalRate:  0.9,
		StandardRate: 1.0,
	}
}

// Playing reports whether an utterance is currently active.
func (s *Speaker) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePlaying
}

// Speak cancels any active utterance and starts playback of text. Lifecycle
// callbacks fire only while this utterance is still the current one.
func (s *Speaker) Speak(ctx context.Context, text string, cb Callbacks) {
	if strings.TrimSpace(text) == "" {
		return
	}
	playCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	prev := s.cancel
	s.gen++
	gen := s.gen
	s.state = StatePlaying
	s.cancel = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
	s.sink.Reset()

	go s.play(playCtx, gen, text, cb)
}

// Stop cancels playback unconditionally. No callbacks fire for the cancelled
// utterance.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.gen++
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.sink.Reset()
}

func (s *Speaker) current(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// writePCM writes to the sink only while gen is still the active utterance.
// The check and the write share the mutex: a superseded utterance can never
// land a chunk after Speak or Stop has reset the sink, because the
// generation bump always precedes the reset.
func (s *Speaker) writePCM(gen int, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.sink.WritePCM(b)
}

func (s *Speaker) rateFor(v Voice) float64 {
	if v.Network || containsAny(v.Name, []string{"Natural", "Online"}) {
		return s.NaturalRate
	}
	return s.StandardRate
}

func (s *Speaker) play(ctx context.Context, gen int, text string, cb Callbacks) {
	req := SynthesisRequest{Text: text, Lang: s.langHint, Rate: s.StandardRate}
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		logrus.Warnf("tts: voice enumeration failed, using language hint only: %v", err)
	}
	if v, ok := s.rules.Pick(voices); ok {
		req.VoiceName = v.Name
		req.Lang = v.Lang
		req.Rate = s.rateFor(v)
	}

	if cb.OnStart != nil && s.current(gen) {
		cb.OnStart()
	}

	pcmCh, errCh := s.engine.Synthesize(ctx, req)
	failed := false
	openPCM, openErr := true, true
	for openPCM || openErr {
		select {
		case b, ok := <-pcmCh:
			if !ok {
				openPCM = false
				continue
			}
			if len(b) > 0 {
				s.writePCM(gen, b)
			}
		case e, ok := <-errCh:
			if !ok {
				openErr = false
				continue
			}
			if e != nil {
				failed = true
				logrus.Warnf("tts: synthesis error: %v", e)
				if cb.OnError != nil && s.current(gen) {
					cb.OnError(e)
				}
			}
		case <-ctx.Done():
			openPCM, openErr = false, false
		}
	}

	s.mu.Lock()
	finished := s.gen == gen
	if finished {
		s.state = StateIdle
		s.cancel = nil
	}
	s.mu.Unlock()
	if finished {
		s.sink.FlushTail()
		if !failed && cb.OnEnd != nil {
			cb.OnEnd()
		}
	}
}
