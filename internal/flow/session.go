package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/genai"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/history"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/stt"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/tts"
)

// Session drives one user through the practice flow. It is the single source
// of truth for stage, level, topic, vocabulary and transcript, and it owns
// the interaction-level serialization: one generation request at a time, and
// speech capture and playback never active against each other.
type Session struct {
	ID string

	gen      Generator
	speaker  Speaker
	listener Listener
	log      *history.Log

	mu           sync.Mutex
	stage        Stage
	level        genai.Level
	topics       []genai.Topic
	topic        *genai.Topic
	vocab        []genai.VocabularyItem
	busy         bool
	pendingInput string
	speechNotice string
}

func NewSession(gen Generator, speaker Speaker, listener Listener) *Session {
	return &Session{
		ID:       uuid.NewString(),
		gen:      gen,
		speaker:  speaker,
		listener: listener,
		log:      history.NewLog(),
		stage:    StageLevelSelection,
		level:    genai.DefaultLevel,
	}
}

// SelectLevel fixes the proficiency level and fetches topic suggestions.
// FetchTopics is total, so the flow always reaches TopicSelection.
func (s *Session) SelectLevel(ctx context.Context, level genai.Level) error {
	if !level.Valid() {
		return fmt.Errorf("flow: invalid level %q", level)
	}
	s.mu.Lock()
	if s.stage != StageLevelSelection {
		s.mu.Unlock()
		return &StageError{Op: "select level", Stage: s.stage}
	}
	s.level = level
	s.stage = StageTopicGeneration
	s.busy = true
	s.mu.Unlock()

	topics := s.gen.FetchTopics(ctx, level)

	s.mu.Lock()
	s.topics = topics
	s.stage = StageTopicSelection
	s.busy = false
	s.mu.Unlock()
	return nil
}

// SelectCustomTopic bypasses topic generation: the topic is synthesized
// locally and the flow jumps straight to vocabulary preparation.
func (s *Session) SelectCustomTopic(ctx context.Context, title string, level genai.Level) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTopic
	}
	if !level.Valid() {
		return fmt.Errorf("flow: invalid level %q", level)
	}
	s.mu.Lock()
	if s.stage != StageLevelSelection {
		s.mu.Unlock()
		return &StageError{Op: "select custom topic", Stage: s.stage}
	}
	topic := genai.Topic{
		ID:              int(time.Now().UnixMilli()),
		Title:           title,
		VietnameseTitle: title,
		Description:     customTopicDescription,
	}
	s.level = level
	s.topic = &topic
	s.stage = StageVocabPrep
	s.busy = true
	s.mu.Unlock()

	vocab := s.gen.FetchVocabulary(ctx, level, title)

	s.mu.Lock()
	s.vocab = vocab
	s.busy = false
	s.mu.Unlock()
	return nil
}

// SelectTopic picks one of the suggested topics and fetches its vocabulary.
// An empty vocabulary result is terminal, not loading.
func (s *Session) SelectTopic(ctx context.Context, topicID int) error {
	s.mu.Lock()
	if s.stage != StageTopicSelection {
		s.mu.Unlock()
		return &StageError{Op: "select topic", Stage: s.stage}
	}
	var topic *genai.Topic
	for i := range s.topics {
		if s.topics[i].ID == topicID {
			topic = &s.topics[i]
			break
		}
	}
	if topic == nil {
		s.mu.Unlock()
		return ErrUnknownTopic
	}
	selected := *topic
	level := s.level
	s.topic = &selected
	s.stage = StageVocabPrep
	s.busy = true
	s.mu.Unlock()

	vocab := s.gen.FetchVocabulary(ctx, level, selected.Title)

	s.mu.Lock()
	s.vocab = vocab
	s.busy = false
	s.mu.Unlock()
	return nil
}

// StartConversation seeds the conversation with a synthetic begin request
// against an empty history. Exactly one message and two history entries are
// committed, and the opening script is played back.
func (s *Session) StartConversation(ctx context.Context) (history.Message, error) {
	s.mu.Lock()
	if s.stage != StageVocabPrep {
		s.mu.Unlock()
		return history.Message{}, &StageError{Op: "start conversation", Stage: s.stage}
	}
	if s.busy {
		s.mu.Unlock()
		return history.Message{}, ErrBusy
	}
	level := s.level
	title := s.topic.Title
	s.stage = StageConversation
	s.busy = true
	s.mu.Unlock()

	res := s.gen.SendTurn(ctx, nil, beginPrompt, level, title)
	msg := s.log.CommitTurn(beginPrompt, res)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.autoplay(res.Script)
	return msg, nil
}

// SendUserMessage runs one exchange: optimistic user message, one serialized
// generation request, committed assistant turn, auto-played reply. Empty
// input and concurrent sends are no-ops.
func (s *Session) SendUserMessage(ctx context.Context, text string) (history.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return history.Message{}, ErrEmptyMessage
	}
	s.mu.Lock()
	if s.stage != StageConversation {
		s.mu.Unlock()
		return history.Message{}, &StageError{Op: "send message", Stage: s.stage}
	}
	if s.busy {
		s.mu.Unlock()
		return history.Message{}, ErrBusy
	}
	s.busy = true
	level := s.level
	title := s.topic.Title
	s.pendingInput = ""
	s.mu.Unlock()

	// Sending cancels playback so the reply never talks over itself.
	s.speaker.Stop()

	s.log.AppendUser(text)
	hist := s.log.Entries()
	res := s.gen.SendTurn(ctx, hist, text, level, title)
	msg := s.log.CommitTurn(text, res)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.autoplay(res.Script)
	return msg, nil
}

// StartListening opens a speech capture for the next user message. Capture
// cancels playback so the microphone does not hear the assistant. The final
// transcript pre-fills the pending input; last write wins.
func (s *Session) StartListening() error {
	s.mu.Lock()
	if s.stage != StageConversation {
		s.mu.Unlock()
		return &StageError{Op: "start listening", Stage: s.stage}
	}
	s.speechNotice = ""
	s.mu.Unlock()

	s.speaker.Stop()

	return s.listener.Start(context.Background(), stt.Events{
		OnTranscript: func(text string) {
			s.mu.Lock()
			s.pendingInput = text
			s.mu.Unlock()
		},
		OnError: func(err *stt.Error) {
			s.mu.Lock()
			s.speechNotice = err.Msg
			s.mu.Unlock()
		},
	})
}

// StopListening requests early finalization of the active capture. Safe when
// idle.
func (s *Session) StopListening() {
	s.listener.Stop()
}

// FeedAudio forwards captured PCM to the active recognition session.
func (s *Session) FeedAudio(pcm []byte) error {
	return s.listener.Feed(pcm)
}

// SetPendingInput replaces the draft input (e.g. the user edited the
// transcript before sending).
func (s *Session) SetPendingInput(text string) {
	s.mu.Lock()
	s.pendingInput = text
	s.mu.Unlock()
}

// Reset clears all session data and returns to level selection.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stage = StageLevelSelection
	s.level = genai.DefaultLevel
	s.topics = nil
	s.topic = nil
	s.vocab = nil
	s.busy = false
	s.pendingInput = ""
	s.speechNotice = ""
	s.mu.Unlock()

	s.log.Reset()
	s.speaker.Stop()
	s.listener.Close()
}

// Close tears down speech resources. No callback fires afterwards.
func (s *Session) Close() {
	s.speaker.Stop()
	s.listener.Close()
}

func (s *Session) autoplay(script string) {
	s.speaker.Speak(context.Background(), script, tts.Callbacks{})
}

// History returns the generation-service history.
func (s *Session) History() []genai.HistoryEntry {
	return s.log.Entries()
}

// Messages returns the UI transcript.
func (s *Session) Messages() []history.Message {
	return s.log.Messages()
}

// Snapshot is the JSON view of the session for clients.
type Snapshot struct {
	ID             string                 `json:"id"`
	Stage          Stage                  `json:"stage"`
	Level          genai.Level            `json:"level"`
	Topics         []genai.Topic          `json:"topics"`
	Topic          *genai.Topic           `json:"topic,omitempty"`
	Vocabulary     []genai.VocabularyItem `json:"vocabulary"`
	Messages       []history.Message      `json:"messages"`
	CompletedTurns int                    `json:"completed_turns"`
	Busy           bool                   `json:"busy"`
	Listening      bool                   `json:"listening"`
	Speaking       bool                   `json:"speaking"`
	PendingInput   string                 `json:"pending_input,omitempty"`
	SpeechNotice   string                 `json:"speech_notice,omitempty"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:           s.ID,
		Stage:        s.stage,
		Level:        s.level,
		Topics:       append([]genai.Topic{}, s.topics...),
		Vocabulary:   append([]genai.VocabularyItem{}, s.vocab...),
		Busy:         s.busy,
		PendingInput: s.pendingInput,
		SpeechNotice: s.speechNotice,
	}
	if s.topic != nil {
		topic := *s.topic
		snap.Topic = &topic
	}
	s.mu.Unlock()

	snap.Messages = s.log.Messages()
	snap.CompletedTurns = s.log.CompletedTurns()
	snap.Listening = s.listener.Listening()
	snap.Speaking = s.speaker.Playing()
	return snap
}
