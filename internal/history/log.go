package history

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/genai"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one entry of the UI-facing transcript. User messages carry Text,
// AI messages carry Turn. Messages are append-only and never mutated.
type Message struct {
	ID        string                `json:"id"`
	Sender    Sender                `json:"sender"`
	Text      string                `json:"text,omitempty"`
	Turn      *genai.ChatTurnResult `json:"turn,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Log keeps the UI transcript and the generation-service history in lockstep.
// Entries only ever grow through CommitTurn, which appends a user/model pair,
// so len(entries) == 2 * completed turns holds by construction. The transcript
// may momentarily run one user message ahead of the entries while a request is
// in flight.
type Log struct {
	mu       sync.Mutex
	messages []Message
	entries  []genai.HistoryEntry
}

func NewLog() *Log {
	return &Log{}
}

// AppendUser appends the optimistic user message to the transcript only. The
// matching history entries are committed later with the assistant turn.
func (l *Log) AppendUser(text string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
	return msg
}

// CommitTurn records a completed exchange: it appends the AI message to the
// transcript and the user/model entry pair to the service history. The model
// entry carries the serialized turn, exactly what the service expects back as
// context.
func (l *Log) CommitTurn(userText string, res genai.ChatTurnResult) Message {
	serialized, err := json.Marshal(res)
	if err != nil {
		// ChatTurnResult contains only marshalable fields; this cannot happen
		// with well-formed input, but never lose the turn over it.
		serialized = []byte("{}")
	}
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    SenderAI,
		Turn:      &res,
		Timestamp: time.Now(),
	}
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.entries = append(l.entries,
		genai.HistoryEntry{Role: genai.RoleUser, Parts: []genai.HistoryPart{{Text: userText}}},
		genai.HistoryEntry{Role: genai.RoleModel, Parts: []genai.HistoryPart{{Text: string(serialized)}}},
	)
	l.mu.Unlock()
	return msg
}

// Messages returns a copy of the transcript.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Entries returns a copy of the generation-service history.
func (l *Log) Entries() []genai.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]genai.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// CompletedTurns reports how many full exchanges have been committed.
func (l *Log) CompletedTurns() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) / 2
}

// Reset discards all messages and entries.
func (l *Log) Reset() {
	l.mu.Lock()
	l.messages = nil
	l.entries = nil
	l.mu.Unlock()
}
