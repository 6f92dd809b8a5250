package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// silenceThreshold is the inactivity window after the last transcript update
// before an utterance is considered complete. Conservative to avoid cutting
// the user mid-sentence.
const silenceThreshold = 700 * time.Millisecond

// maxCaptureDuration bounds a single capture so a stalled stream cannot leave
// the listening flag stuck forever.
const maxCaptureDuration = 30 * time.Second

// AssemblyAIRecognizer opens single-utterance realtime transcription sessions
// against the AssemblyAI streaming API.
type AssemblyAIRecognizer struct {
	apiKey string
	wsURL  string
}

func NewAssemblyAIRecognizer(apiKey string) *AssemblyAIRecognizer {
	return &AssemblyAIRecognizer{apiKey: apiKey, wsURL: "wss://streaming.assemblyai.com/v3/ws"}
}

type beginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type turnMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Capture dials a fresh streaming session. The returned session finalizes on
// sustained silence, on Stop, or at the capture deadline, whichever first.
func (r *AssemblyAIRecognizer) Capture(ctx context.Context, lang string) (Session, error) {
	if r.apiKey == "" {
		return nil, errUnsupported()
	}

	params := url.Values{}
	params.Set("sample_rate", "16000")
	params.Set("format_turns", "false")
	params.Set("encoding", "pcm_s16le")
	if lang != "" {
		params.Set("language", strings.ToLower(lang))
	}
	wsURL := fmt.Sprintf("%s?%s", r.wsURL, params.Encode())

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	headers := http.Header{"Authorization": {r.apiKey}}
	conn, resp, err := dialer.Dial(wsURL, headers)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, errPermission(err)
		}
		return nil, errNetwork(err)
	}

	s := &assemblySession{
		conn:        conn,
		transcripts: make(chan string, 1),
		errs:        make(chan error, 1),
		stopCh:      make(chan struct{}),
	}
	go s.readLoop()
	go s.watch(ctx)
	return s, nil
}

type assemblySession struct {
	conn        *websocket.Conn
	transcripts chan string
	errs        chan error
	stopCh      chan struct{}
	stopOnce    sync.Once

	mu       sync.Mutex
	latest   string
	lastTurn time.Time
	heard    bool
	done     bool
}

func (s *assemblySession) Transcript() <-chan string { return s.transcripts }
func (s *assemblySession) Err() <-chan error         { return s.errs }

func (s *assemblySession) Feed(pcm []byte) error {
	if s.isDone() {
		return fmt.Errorf("stt: session already finished")
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return errNetwork(err)
	}
	return nil
}

// Stop requests early finalization with whatever was transcribed so far.
func (s *assemblySession) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Abort closes the session without emitting a transcript or an error.
func (s *assemblySession) Abort() {
	s.finish(false)
}

func (s *assemblySession) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// finish terminates the session exactly once. With emit set, it delivers the
// accumulated transcript, or a no-speech error when nothing was heard.
func (s *assemblySession) finish(emit bool) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	latest := strings.TrimSpace(s.latest)
	s.mu.Unlock()

	_ = s.conn.WriteJSON(map[string]string{"type": "Terminate"})
	_ = s.conn.Close()

	if emit {
		if latest != "" {
			s.transcripts <- latest
		} else {
			s.errs <- errNoSpeech()
		}
	}
	close(s.transcripts)
	close(s.errs)
}

// fail terminates the session with a classified error.
func (s *assemblySession) fail(err *Error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	_ = s.conn.Close()
	s.errs <- err
	close(s.transcripts)
	close(s.errs)
}

func (s *assemblySession) readLoop() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isDone() {
				s.fail(errNetwork(err))
			}
			return
		}
		s.processMessage(message)
	}
}

func (s *assemblySession) processMessage(message []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		logrus.Warnf("assemblyai: unreadable message: %v", err)
		return
	}
	switch base.Type {
	case "Begin":
		var msg beginMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			logrus.Debugf("assemblyai: session began id=%s", msg.ID)
		}
	case "Turn":
		var msg turnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logrus.Warnf("assemblyai: bad turn message: %v", err)
			return
		}
		if msg.Transcript == "" {
			return
		}
		s.mu.Lock()
		s.latest = msg.Transcript
		s.lastTurn = time.Now()
		s.heard = true
		s.mu.Unlock()
	case "Error":
		var msg errorMessage
		_ = json.Unmarshal(message, &msg)
		s.fail(serverError(msg.Error))
	case "Termination":
		// Server closed the turn; the watchdog finalizes from local state.
	}
}

// serverError maps an in-band service error to a classified kind.
func serverError(text string) *Error {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "unauthorized") || strings.Contains(lower, "not authorized") || strings.Contains(lower, "forbidden") {
		return errPermission(fmt.Errorf("assemblyai: %s", text))
	}
	return errNetwork(fmt.Errorf("assemblyai: %s", text))
}

// watch finalizes the single utterance: sustained silence after speech, an
// explicit Stop, context cancellation, or the overall capture deadline.
func (s *assemblySession) watch(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(maxCaptureDuration)
	for {
		select {
		case <-ctx.Done():
			s.finish(false)
			return
		case <-s.stopCh:
			s.finish(true)
			return
		case <-ticker.C:
			if s.isDone() {
				return
			}
			s.mu.Lock()
			heard := s.heard
			last := s.lastTurn
			s.mu.Unlock()
			if heard && time.Since(last) > silenceThreshold {
				s.finish(true)
				return
			}
			if time.Now().After(deadline) {
				s.finish(true)
				return
			}
		}
	}
}
