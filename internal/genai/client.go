package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// TransportError covers network failures, non-2xx statuses and unreadable
// response envelopes.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("genai %s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError means the service answered, but the payload did not decode and
// validate against the declared output shape.
type SchemaError struct {
	Op     string
	Reason string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("genai %s: schema: %s", e.Op, e.Reason) }

// Client talks to a Gemini-compatible generateContent endpoint and maps the
// three domain operations onto structured-output requests. Each operation
// recovers failures locally with its own fallback policy, so callers never
// see an error: FetchTopics degrades to a static list, FetchVocabulary to an
// empty set, SendTurn to a canned apology turn.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	BaseURL    string
}

// NewClient constructs a Client with a bounded per-request timeout.
func NewClient(apiKey, model string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    defaultBaseURL,
	}
}

type generationConfig struct {
	ResponseMIMEType string         `json:"response_mime_type"`
	ResponseSchema   map[string]any `json:"response_schema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *HistoryEntry    `json:"system_instruction,omitempty"`
	Contents          []HistoryEntry   `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate performs one round trip and returns the raw structured-output text.
func (c *Client) generate(ctx context.Context, op string, system string, contents []HistoryEntry, schema map[string]any) ([]byte, error) {
	if c.APIKey == "" {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("api key missing")}
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.BaseURL, c.Model)

	body := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	if system != "" {
		body.SystemInstruction = &HistoryEntry{Parts: []HistoryPart{{Text: system}}}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("x-goog-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{Op: op, Err: fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))}
	}
	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &SchemaError{Op: op, Reason: "empty candidates"}
	}
	text := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, &SchemaError{Op: op, Reason: "empty text part"}
	}
	return []byte(text), nil
}

// FetchTopics requests 3 level-appropriate topic suggestions. Any failure
// yields the static fallback list so the selection screen always has content.
func (c *Client) FetchTopics(ctx context.Context, level Level) []Topic {
	const op = "topics"
	raw, err := c.generate(ctx, op, systemInstruction,
		[]HistoryEntry{{Role: RoleUser, Parts: []HistoryPart{{Text: topicPrompt(level)}}}},
		topicListSchema())
	if err != nil {
		logrus.Warnf("genai: topic generation failed, using fallback: %v", err)
		return FallbackTopics()
	}
	var topics []Topic
	if err := decodeTopics(raw, &topics); err != nil {
		logrus.Warnf("genai: topic generation failed, using fallback: %v", err)
		return FallbackTopics()
	}
	return topics
}

// FetchVocabulary requests 10-15 study items for (level, topic). Any failure
// yields an empty (non-nil) set: "vocabulary unavailable" is a terminal
// state, not a loading one.
func (c *Client) FetchVocabulary(ctx context.Context, level Level, topicTitle string) []VocabularyItem {
	const op = "vocabulary"
	raw, err := c.generate(ctx, op, systemInstruction,
		[]HistoryEntry{{Role: RoleUser, Parts: []HistoryPart{{Text: vocabularyPrompt(level, topicTitle)}}}},
		vocabularySchema())
	if err != nil {
		logrus.Warnf("genai: vocabulary generation failed: %v", err)
		return []VocabularyItem{}
	}
	var items []VocabularyItem
	if err := decodeVocabulary(raw, &items); err != nil {
		logrus.Warnf("genai: vocabulary generation failed: %v", err)
		return []VocabularyItem{}
	}
	return items
}

// SendTurn sends the full conversation history plus the new user utterance
// and returns the assistant turn. Any failure yields the canned apology turn,
// indistinguishable downstream from a genuine reply.
func (c *Client) SendTurn(ctx context.Context, history []HistoryEntry, userText string, level Level, topicTitle string) ChatTurnResult {
	const op = "turn"
	contents := make([]HistoryEntry, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, HistoryEntry{Role: RoleUser, Parts: []HistoryPart{{Text: userText}}})

	raw, err := c.generate(ctx, op, chatSystemInstruction(level, topicTitle), contents, chatTurnSchema())
	if err != nil {
		logrus.Warnf("genai: chat turn failed, using canned reply: %v", err)
		return CannedTurn()
	}
	var res ChatTurnResult
	if err := decodeChatTurn(raw, &res); err != nil {
		logrus.Warnf("genai: chat turn failed, using canned reply: %v", err)
		return CannedTurn()
	}
	return res
}

// decodeTopics is the strict decode step for the topic list shape.
func decodeTopics(raw []byte, out *[]Topic) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Op: "topics", Reason: err.Error()}
	}
	if len(*out) == 0 {
		return &SchemaError{Op: "topics", Reason: "empty topic list"}
	}
	for i, t := range *out {
		if t.Title == "" || t.VietnameseTitle == "" || t.Description == "" {
			return &SchemaError{Op: "topics", Reason: fmt.Sprintf("topic %d missing required fields", i)}
		}
	}
	return nil
}

func decodeVocabulary(raw []byte, out *[]VocabularyItem) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Op: "vocabulary", Reason: err.Error()}
	}
	for i, v := range *out {
		if v.Chinese == "" || v.Pinyin == "" || v.Vietnamese == "" {
			return &SchemaError{Op: "vocabulary", Reason: fmt.Sprintf("item %d missing required fields", i)}
		}
	}
	return nil
}

func decodeChatTurn(raw []byte, out *ChatTurnResult) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Op: "turn", Reason: err.Error()}
	}
	if out.Script == "" || out.Pinyin == "" || out.Translation == "" {
		return &SchemaError{Op: "turn", Reason: "missing required fields"}
	}
	if len(out.Segments) == 0 {
		return &SchemaError{Op: "turn", Reason: "missing segments"}
	}
	return nil
}
