package tts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	mu       sync.Mutex
	voices   []Voice
	requests []SynthesisRequest
	chunks   int
	delay    time.Duration
	err      error
}

func (f *fakeEngine) Voices(ctx context.Context) ([]Voice, error) { return f.voices, nil }

func (f *fakeEngine) Synthesize(ctx context.Context, req SynthesisRequest) (<-chan []byte, <-chan error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	pcm := make(chan []byte, 16)
	errc := make(chan error, 1)
	go func() {
		defer close(pcm)
		defer close(errc)
		if f.err != nil {
			errc <- f.err
			return
		}
		for i := 0; i < f.chunks; i++ {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.delay):
			}
			pcm <- []byte{1, 0, 2, 0}
		}
	}()
	return pcm, errc
}

func (f *fakeEngine) lastRequest() SynthesisRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSpeaker_SecondSpeakSupersedesFirst(t *testing.T) {
	eng := &fakeEngine{chunks: 20, delay: 10 * time.Millisecond}
	sink := NewMemorySink()
	sp := NewSpeaker(eng, sink, DefaultMandarinRuleset(), "zh-TW")

	var firstEnd, secondEnd int32
	sp.Speak(context.Background(), "第一句", Callbacks{OnEnd: func() { atomic.AddInt32(&firstEnd, 1) }})
	time.Sleep(15 * time.Millisecond)
	sp.Speak(context.Background(), "第二句", Callbacks{OnEnd: func() { atomic.AddInt32(&secondEnd, 1) }})

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&secondEnd) == 1 })
	// Give the superseded goroutine time to wind down, then check it stayed silent.
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&firstEnd) != 0 {
		t.Fatalf("superseded utterance fired OnEnd")
	}
	if sp.Playing() {
		t.Fatalf("expected idle after second utterance ended")
	}
}

func TestSpeaker_StopIsSafeWhenIdleAndCancelsWhenPlaying(t *testing.T) {
	eng := &fakeEngine{chunks: 50, delay: 10 * time.Millisecond}
	sp := NewSpeaker(eng, NewMemorySink(), DefaultMandarinRuleset(), "zh-TW")

	sp.Stop() // idle: no-op

	var ended int32
	sp.Speak(context.Background(), "你好", Callbacks{OnEnd: func() { atomic.AddInt32(&ended, 1) }})
	waitFor(t, time.Second, func() bool { return sp.Playing() })
	sp.Stop()
	if sp.Playing() {
		t.Fatalf("expected idle after Stop")
	}
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&ended) != 0 {
		t.Fatalf("cancelled utterance fired OnEnd")
	}
}

func TestSpeaker_ErrorFiresOnErrorNotOnEnd(t *testing.T) {
	eng := &fakeEngine{err: errors.New("synth down")}
	sp := NewSpeaker(eng, NewMemorySink(), DefaultMandarinRuleset(), "zh-TW")

	var gotErr int32
	var gotEnd int32
	sp.Speak(context.Background(), "你好", Callbacks{
		OnError: func(error) { atomic.AddInt32(&gotErr, 1) },
		OnEnd:   func() { atomic.AddInt32(&gotEnd, 1) },
	})
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&gotErr) == 1 })
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&gotEnd) != 0 {
		t.Fatalf("failed utterance fired OnEnd")
	}
	if sp.Playing() {
		t.Fatalf("playback flag must clear on error")
	}
}

func TestSpeaker_RateAdaptsToVoiceClass(t *testing.T) {
	natural := Voice{Name: "HsiaoChen Online", Lang: "zh-TW", Network: true}
	standard := Voice{Name: "Plain", Lang: "zh-TW"}

	for _, tc := range []struct {
		name  string
		voice Voice
		want  float64
	}{
		{"natural_slowed", natural, 0.9},
		{"standard_default", standard, 1.0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			eng := &fakeEngine{voices: []Voice{tc.voice}, chunks: 1, delay: time.Millisecond}
			sp := NewSpeaker(eng, NewMemorySink(), DefaultMandarinRuleset(), "zh-TW")
			done := make(chan struct{})
			sp.Speak(context.Background(), "你好", Callbacks{OnEnd: func() { close(done) }})
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatalf("timeout")
			}
			got := eng.lastRequest()
			if got.Rate != tc.want {
				t.Fatalf("rate=%v want=%v", got.Rate, tc.want)
			}
			if got.VoiceName != tc.voice.Name {
				t.Fatalf("voice=%q want=%q", got.VoiceName, tc.voice.Name)
			}
		})
	}
}

func TestSpeaker_NoVoiceBindingFallsBackToLangHint(t *testing.T) {
	eng := &fakeEngine{voices: []Voice{{Name: "English", Lang: "en-US"}}, chunks: 1, delay: time.Millisecond}
	sp := NewSpeaker(eng, NewMemorySink(), DefaultMandarinRuleset(), "zh-TW")
	done := make(chan struct{})
	sp.Speak(context.Background(), "你好", Callbacks{OnEnd: func() { close(done) }})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timeout")
	}
	got := eng.lastRequest()
	if got.VoiceName != "" {
		t.Fatalf("expected no voice binding, got %q", got.VoiceName)
	}
	if got.Lang != "zh-TW" {
		t.Fatalf("expected language hint zh-TW, got %q", got.Lang)
	}
}

func TestSpeaker_SupersededUtteranceCannotWriteAfterReset(t *testing.T) {
	sink := NewMemorySink()
	sp := NewSpeaker(&fakeEngine{}, sink, DefaultMandarinRuleset(), "zh-TW")

	sp.Speak(context.Background(), "第一句", Callbacks{})
	sp.mu.Lock()
	staleGen := sp.gen
	sp.mu.Unlock()

	sp.Speak(context.Background(), "第二句", Callbacks{})

	// A chunk the first utterance already pulled off its channel must be
	// dropped, not appended behind the new utterance's audio.
	sp.writePCM(staleGen, []byte{9, 9, 9, 9})
	if got := sink.Bytes(); len(got) != 0 {
		t.Fatalf("stale chunk landed after reset: %v", got)
	}

	// The active utterance still writes through.
	sp.mu.Lock()
	cur := sp.gen
	sp.mu.Unlock()
	sp.writePCM(cur, []byte{1, 0})
	if got := sink.Bytes(); len(got) != 2 {
		t.Fatalf("current utterance write lost, sink=%v", got)
	}
}

func TestMemorySink_ResetDropsAudio(t *testing.T) {
	sink := NewMemorySink()
	sink.WritePCM([]byte{1, 2})
	sink.WritePCM([]byte{3})
	if got := sink.Bytes(); len(got) != 3 {
		t.Fatalf("expected 3 bytes, got %d", len(got))
	}
	sink.Reset()
	if got := sink.Bytes(); len(got) != 0 {
		t.Fatalf("expected empty after reset, got %d", len(got))
	}
}
