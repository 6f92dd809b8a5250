package stt

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// State of the capture slot.
type State int

const (
	StateIdle State = iota
	StateListening
)

// ErrAlreadyListening is returned when Start is called while a capture is in
// progress. There is no Listening -> Listening transition; the caller must
// Stop first.
var ErrAlreadyListening = errors.New("stt: capture already in progress")

// Listener manages the single recognition slot: one capture at a time, a
// fresh provider session per Start, and guaranteed teardown via Close so no
// callback fires after the owner is gone.
type Listener struct {
	rec  Recognizer
	lang string

	mu      sync.Mutex
	state   State
	session Session
	gen     int
}

func NewListener(rec Recognizer, lang string) *Listener {
	return &Listener{rec: rec, lang: lang}
}

// Listening reports whether a capture is in progress.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StateListening
}

// Start opens a fresh capture session. With no recognizer configured it
// fails with an unsupported error before anything starts.
func (l *Listener) Start(ctx context.Context, ev Events) error {
	if l.rec == nil {
		return errUnsupported()
	}
	l.mu.Lock()
	if l.state == StateListening {
		l.mu.Unlock()
		return ErrAlreadyListening
	}
	// Claim the slot before dialing so a concurrent Start cannot pass the
	// guard during the provider round trip.
	l.state = StateListening
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	sess, err := l.rec.Capture(ctx, l.lang)
	if err != nil {
		l.mu.Lock()
		if l.gen == gen {
			l.state = StateIdle
		}
		l.mu.Unlock()
		return classify(err)
	}

	l.mu.Lock()
	if l.gen != gen {
		// Closed while dialing; the slot is no longer ours.
		l.mu.Unlock()
		sess.Abort()
		return &Error{Kind: KindAborted, Msg: "capture aborted"}
	}
	l.session = sess
	l.mu.Unlock()

	go l.pump(sess, gen, ev)
	return nil
}

// Stop requests early finalization of the active capture. Safe when idle.
func (l *Listener) Stop() {
	l.mu.Lock()
	sess := l.session
	l.mu.Unlock()
	if sess != nil {
		sess.Stop()
	}
}

// Close aborts any in-flight capture and suppresses its callbacks. Call it
// when the owning context is torn down.
func (l *Listener) Close() {
	l.mu.Lock()
	sess := l.session
	l.gen++
	l.state = StateIdle
	l.session = nil
	l.mu.Unlock()
	if sess != nil {
		sess.Abort()
	}
}

// Feed forwards captured PCM to the active session.
func (l *Listener) Feed(pcm []byte) error {
	l.mu.Lock()
	sess := l.session
	l.mu.Unlock()
	if sess == nil {
		return errors.New("stt: not listening")
	}
	return sess.Feed(pcm)
}

func (l *Listener) current(gen int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen == gen
}

func (l *Listener) pump(sess Session, gen int, ev Events) {
	tCh := sess.Transcript()
	eCh := sess.Err()
	for tCh != nil || eCh != nil {
		select {
		case text, ok := <-tCh:
			if !ok {
				tCh = nil
				continue
			}
			if l.current(gen) && ev.OnTranscript != nil {
				ev.OnTranscript(text)
			}
		case err, ok := <-eCh:
			if !ok {
				eCh = nil
				continue
			}
			cerr := classify(err)
			if cerr == nil {
				continue
			}
			if cerr.Kind == KindNoSpeech {
				// Silence is not an error the user needs to hear about.
				logrus.Debugf("stt: capture ended with no speech")
				continue
			}
			logrus.Warnf("stt: capture error: %v", cerr)
			if l.current(gen) && ev.OnError != nil {
				ev.OnError(cerr)
			}
		}
	}

	l.mu.Lock()
	finished := l.gen == gen
	if finished {
		l.state = StateIdle
		l.session = nil
	}
	l.mu.Unlock()
	if finished && ev.OnEnd != nil {
		ev.OnEnd()
	}
}
