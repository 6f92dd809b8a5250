package genai

// Level is a TOCFL proficiency tier. Native is unrestricted.
type Level string

const (
	LevelA1     Level = "A1"
	LevelA2     Level = "A2"
	LevelB1     Level = "B1"
	LevelB2     Level = "B2"
	LevelC1     Level = "C1"
	LevelC2     Level = "C2"
	LevelNative Level = "Native"
)

// DefaultLevel is the level a fresh session starts with.
const DefaultLevel = LevelA1

// Valid reports whether l is one of the known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2, LevelNative:
		return true
	}
	return false
}

// Topic is a conversation scenario, either generated or user-authored.
type Topic struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	VietnameseTitle string `json:"vietnamese_title"`
	Description     string `json:"description"`
}

// VocabularyItem is one entry of the pre-conversation study set.
type VocabularyItem struct {
	Chinese        string `json:"chinese"`
	Pinyin         string `json:"pinyin"`
	Vietnamese     string `json:"vietnamese"`
	Example        string `json:"example"`
	ExamplePinyin  string `json:"example_pinyin"`
	ExampleMeaning string `json:"example_meaning"`
}

// Segment is a sub-span of an AI utterance with its own reading and meaning,
// for word-level inspection. Segments collectively cover the whole script
// (a generation-service contract).
type Segment struct {
	Text    string `json:"text"`
	Pinyin  string `json:"pinyin"`
	Meaning string `json:"meaning"`
}

// ChatTurnResult is one assistant turn: feedback on the user's input plus the
// assistant's reply with full reading, translation and segmentation.
type ChatTurnResult struct {
	Feedback          string    `json:"feedback"`
	FeedbackPinyin    string    `json:"feedback_pinyin,omitempty"`
	Script            string    `json:"script"`
	Pinyin            string    `json:"pinyin"`
	Translation       string    `json:"translation"`
	Segments          []Segment `json:"segments"`
	Suggestion        string    `json:"suggestion,omitempty"`
	SuggestionPinyin  string    `json:"suggestion_pinyin,omitempty"`
	SuggestionMeaning string    `json:"suggestion_meaning,omitempty"`
}

// HistoryPart is one text part of a history entry.
type HistoryPart struct {
	Text string `json:"text"`
}

// HistoryEntry is a role-tagged turn record in the wire format the generation
// service expects. For model turns the text is the serialized ChatTurnResult.
type HistoryEntry struct {
	Role  string        `json:"role"`
	Parts []HistoryPart `json:"parts"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)
