package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/genai"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/stt"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/tts"
)

// Stage is the current step of the practice flow.
type Stage string

const (
	StageLevelSelection  Stage = "LEVEL_SELECTION"
	StageTopicGeneration Stage = "TOPIC_GENERATION"
	StageTopicSelection  Stage = "TOPIC_SELECTION"
	StageVocabPrep       Stage = "VOCAB_PREP"
	StageConversation    Stage = "CONVERSATION"
)

// Generator is the narrow contract against the generation service. All three
// operations are total: failures degrade to fallback values inside the
// adapter, never into errors here.
type Generator interface {
	FetchTopics(ctx context.Context, level genai.Level) []genai.Topic
	FetchVocabulary(ctx context.Context, level genai.Level, topicTitle string) []genai.VocabularyItem
	SendTurn(ctx context.Context, history []genai.HistoryEntry, userText string, level genai.Level, topicTitle string) genai.ChatTurnResult
}

// Speaker is the playback slot for assistant utterances.
type Speaker interface {
	Speak(ctx context.Context, text string, cb tts.Callbacks)
	Stop()
	Playing() bool
}

// Listener is the capture slot for user speech.
type Listener interface {
	Start(ctx context.Context, ev stt.Events) error
	Stop()
	Feed(pcm []byte) error
	Listening() bool
	Close()
}

var (
	// ErrBusy means a generation request is already in flight; sends are
	// serialized, never queued.
	ErrBusy = errors.New("flow: a generation request is already in flight")
	// ErrEmptyMessage means the trimmed input was empty; sending is a no-op.
	ErrEmptyMessage = errors.New("flow: empty message")
	// ErrEmptyTopic means a custom topic title was blank.
	ErrEmptyTopic = errors.New("flow: empty topic title")
	// ErrUnknownTopic means the selected topic id is not in the suggestion list.
	ErrUnknownTopic = errors.New("flow: unknown topic")
)

// StageError reports an operation attempted in the wrong stage.
type StageError struct {
	Op    string
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("flow: %s not allowed in stage %s", e.Op, e.Stage)
}

// beginPrompt seeds the first assistant message; it is sent as the user turn
// of the opening exchange but never shown in the transcript.
const beginPrompt = "Hãy bắt đầu cuộc hội thoại với câu chào mừng phù hợp."

// customTopicDescription marks a user-authored topic.
const customTopicDescription = "Chủ đề tự chọn bởi người dùng"
