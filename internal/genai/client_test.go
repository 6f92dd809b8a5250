package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func envelope(t *testing.T, payload string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": payload}}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(b)
}

func testClient(srv *httptest.Server) *Client {
	c := NewClient("key", "model")
	c.BaseURL = srv.URL
	c.HTTPClient = &http.Client{Timeout: time.Second}
	return c
}

func TestFetchTopics_NoKeyFallback(t *testing.T) {
	c := NewClient("", "model")
	topics := c.FetchTopics(context.Background(), LevelA1)
	if len(topics) != 3 {
		t.Fatalf("expected 3 fallback topics, got %d", len(topics))
	}
	for i, tp := range topics {
		if tp.Title == "" || tp.VietnameseTitle == "" || tp.Description == "" {
			t.Fatalf("fallback topic %d has empty fields: %+v", i, tp)
		}
	}
}

func TestFetchTopics_FailureModes(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_envelope", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }},
		{"empty_candidates", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"candidates":[]}`)) }},
		{"payload_not_json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"nope"}]}}]}`))
		}},
		{"payload_missing_fields", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[{\"id\":1,\"title\":\"x\"}]"}]}}]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			topics := testClient(srv).FetchTopics(context.Background(), LevelB1)
			if len(topics) != 3 {
				t.Fatalf("expected 3 fallback topics, got %d", len(topics))
			}
		})
	}
}

func TestGenerate_MarshalFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server when the body cannot be built")
	}))
	defer srv.Close()

	schema := map[string]any{"bad": func() {}}
	_, err := testClient(srv).generate(context.Background(), "topics", "", nil, schema)
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestFetchTopics_OK(t *testing.T) {
	payload := `[{"id":1,"title":"逛夜市 (Guàng yèshì)","vietnamese_title":"Đi dạo chợ đêm","description":"night market"},
		{"id":2,"title":"問路 (Wèn lù)","vietnamese_title":"Hỏi đường","description":"directions"},
		{"id":3,"title":"看醫生 (Kàn yīshēng)","vietnamese_title":"Đi khám bệnh","description":"doctor"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(envelope(t, payload)))
	}))
	defer srv.Close()
	topics := testClient(srv).FetchTopics(context.Background(), LevelA2)
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}
	if topics[0].Title != "逛夜市 (Guàng yèshì)" {
		t.Fatalf("unexpected first topic: %+v", topics[0])
	}
}

func TestFetchVocabulary_FailureIsEmptyNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()
	items := testClient(srv).FetchVocabulary(context.Background(), LevelA1, "買珍珠奶茶")
	if items == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(items))
	}
}

func TestFetchVocabulary_OK(t *testing.T) {
	payload := `[{"chinese":"珍珠奶茶","pinyin":"zhēnzhū nǎichá","vietnamese":"trà sữa trân châu",
		"example":"我要一杯珍珠奶茶","example_pinyin":"wǒ yào yī bēi zhēnzhū nǎichá","example_meaning":"Tôi muốn một ly trà sữa"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelope(t, payload)))
	}))
	defer srv.Close()
	items := testClient(srv).FetchVocabulary(context.Background(), LevelA1, "買珍珠奶茶")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Chinese != "珍珠奶茶" || items[0].ExampleMeaning == "" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestSendTurn_FailureYieldsCannedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer srv.Close()
	res := testClient(srv).SendTurn(context.Background(), nil, "我想要一杯奶茶", LevelA1, "買珍珠奶茶")
	if res.Feedback != "Lỗi kết nối" {
		t.Fatalf("expected canned feedback, got %q", res.Feedback)
	}
	var b strings.Builder
	for _, s := range res.Segments {
		b.WriteString(s.Text)
	}
	if b.String() != res.Script {
		t.Fatalf("canned segments do not reconstruct script: %q vs %q", b.String(), res.Script)
	}
}

func TestSendTurn_OK_SegmentsCoverScript(t *testing.T) {
	turn := ChatTurnResult{
		Feedback:    "Hao bang!",
		Script:      "你想要大杯還是小杯？",
		Pinyin:      "Nǐ xiǎng yào dà bēi háishì xiǎo bēi?",
		Translation: "Bạn muốn ly lớn hay ly nhỏ?",
		Segments: []Segment{
			{Text: "你", Pinyin: "nǐ", Meaning: "bạn"},
			{Text: "想要", Pinyin: "xiǎng yào", Meaning: "muốn"},
			{Text: "大杯", Pinyin: "dà bēi", Meaning: "ly lớn"},
			{Text: "還是", Pinyin: "háishì", Meaning: "hay là"},
			{Text: "小杯", Pinyin: "xiǎo bēi", Meaning: "ly nhỏ"},
			{Text: "？", Pinyin: "", Meaning: ""},
		},
	}
	payload, _ := json.Marshal(turn)
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(envelope(t, string(payload))))
	}))
	defer srv.Close()

	history := []HistoryEntry{
		{Role: RoleUser, Parts: []HistoryPart{{Text: "begin"}}},
		{Role: RoleModel, Parts: []HistoryPart{{Text: "{}"}}},
	}
	res := testClient(srv).SendTurn(context.Background(), history, "我想要一杯奶茶", LevelA1, "買珍珠奶茶")
	if res.Script != turn.Script {
		t.Fatalf("unexpected script: %q", res.Script)
	}
	var b strings.Builder
	for _, s := range res.Segments {
		b.WriteString(s.Text)
	}
	if b.String() != res.Script {
		t.Fatalf("segments do not reconstruct script: %q vs %q", b.String(), res.Script)
	}
	// Full history plus the new user utterance must be sent, in order.
	if len(gotReq.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(gotReq.Contents))
	}
	last := gotReq.Contents[2]
	if last.Role != RoleUser || len(last.Parts) != 1 || last.Parts[0].Text != "我想要一杯奶茶" {
		t.Fatalf("unexpected final content: %+v", last)
	}
}

func TestSendTurn_MissingSegmentsIsSchemaFailure(t *testing.T) {
	payload := `{"feedback":"ok","script":"好","pinyin":"hǎo","translation":"tốt","segments":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelope(t, payload)))
	}))
	defer srv.Close()
	res := testClient(srv).SendTurn(context.Background(), nil, "hi", LevelA1, "topic")
	if res.Feedback != "Lỗi kết nối" {
		t.Fatalf("expected canned reply on schema violation, got %+v", res)
	}
}
