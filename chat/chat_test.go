package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/retrieval"
	"github.com/lexiq-ai/lexiq/security"
	"github.com/lexiq-ai/lexiq/store"
)

type fakeSimilarity struct {
	hits []retrieval.Hit
	err  error
}

func (f fakeSimilarity) DedupedCases(ctx context.Context, query string, k int) ([]retrieval.Hit, error) {
	return f.hits, f.err
}

type fakeExcerpts struct{ text string }

func (f fakeExcerpts) ExtractPageContent(ctx context.Context, url string, page int) string {
	return f.text
}

type fakeFollowUp struct {
	hits []retrieval.Hit
	err  error
}

func (f fakeFollowUp) FollowUpSuggestions(ctx context.Context, topic string, limit int) ([]retrieval.Hit, error) {
	return f.hits, f.err
}

type fakeChatLLM struct {
	resp *llm.ChatResponse
	err  error
}

func (f fakeChatLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return f.resp, f.err
}
func (f fakeChatLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) { return nil, nil }

func newTestEngine(t *testing.T, llmProvider llm.Provider, sim similaritySource) *Engine {
	t.Helper()
	st := NewInMemoryStore()
	secCfg := security.DefaultConfig()
	secCfg.AuditLogPath = filepath.Join(t.TempDir(), "security.log")
	sec, err := security.New(secCfg)
	if err != nil {
		t.Fatalf("security.New: %v", err)
	}
	t.Cleanup(func() { sec.Close() })
	return New(st, sec, sim, fakeExcerpts{}, nil, llmProvider, nil)
}

func TestStartSessionIsFresh(t *testing.T) {
	e := newTestEngine(t, fakeChatLLM{resp: &llm.ChatResponse{Content: "analysis"}}, fakeSimilarity{})
	s, err := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.State != StateFresh {
		t.Errorf("expected fresh state, got %v", s.State)
	}
}

func TestSendMessageTransitionsToActive(t *testing.T) {
	e := newTestEngine(t, fakeChatLLM{resp: &llm.ChatResponse{Content: "The precedents support this position."}}, fakeSimilarity{
		hits: []retrieval.Hit{{Chunk: store.Chunk{CaseTitle: "Case A", Citation: "2020 SCC 1", Content: "body"}}},
	})
	s, err := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	resp, err := e.SendMessage(context.Background(), s.ID, "user-1", "What precedents support a contract breach claim here?", true)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Degraded {
		t.Error("expected a non-degraded response")
	}
	if len(resp.CitedPrecedents) == 0 {
		t.Error("expected cited precedents")
	}

	stored, err := e.store.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.State != StateActive {
		t.Errorf("expected active state after first message, got %v", stored.State)
	}
	if len(stored.Turns) != 2 {
		t.Errorf("expected 2 turns (user+assistant), got %d", len(stored.Turns))
	}
}

func TestSendMessageRejectsInvalidInput(t *testing.T) {
	e := newTestEngine(t, fakeChatLLM{resp: &llm.ChatResponse{Content: "x"}}, fakeSimilarity{})
	s, _ := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")

	_, err := e.SendMessage(context.Background(), s.ID, "user-1", "short", true)
	if err == nil {
		t.Fatal("expected an error for an input too short to pass validation")
	}
}

func TestSendMessageDegradesOnLLMFailure(t *testing.T) {
	e := newTestEngine(t, fakeChatLLM{err: errors.New("timeout")}, fakeSimilarity{})
	s, _ := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")

	resp, err := e.SendMessage(context.Background(), s.ID, "user-1", "What precedents support a contract breach claim here?", true)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected a degraded response when the LLM call fails")
	}
}

func TestSendMessageSuggestsFollowUpsFromFTS(t *testing.T) {
	st := NewInMemoryStore()
	secCfg := security.DefaultConfig()
	secCfg.AuditLogPath = filepath.Join(t.TempDir(), "security.log")
	sec, err := security.New(secCfg)
	if err != nil {
		t.Fatalf("security.New: %v", err)
	}
	t.Cleanup(func() { sec.Close() })

	sim := fakeSimilarity{hits: []retrieval.Hit{{Chunk: store.Chunk{CaseTitle: "Cited Case", Citation: "2020 SCC 1", Content: "body"}}}}
	fu := fakeFollowUp{hits: []retrieval.Hit{
		{Chunk: store.Chunk{CaseTitle: "Cited Case", Citation: "2020 SCC 1"}},
		{Chunk: store.Chunk{CaseTitle: "Other Case", Citation: "2019 SCC 4"}},
	}}
	e := New(st, sec, sim, fakeExcerpts{}, fu, fakeChatLLM{resp: &llm.ChatResponse{Content: "answer"}}, nil)

	s, err := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	resp, err := e.SendMessage(context.Background(), s.ID, "user-1", "What precedents support a contract breach claim here?", true)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(resp.FollowUpQuestions) != 1 {
		t.Fatalf("expected 1 follow-up question (the already-cited case excluded), got %v", resp.FollowUpQuestions)
	}
}

func TestDeleteSessionTerminatesAndBlocksFurtherOperations(t *testing.T) {
	e := newTestEngine(t, fakeChatLLM{resp: &llm.ChatResponse{Content: "x"}}, fakeSimilarity{})
	s, _ := e.StartSession(context.Background(), "user-1", "A case about contract breach between two parties.", "Sample Case")

	if err := e.DeleteSession(context.Background(), s.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	_, err := e.SendMessage(context.Background(), s.ID, "user-1", "What precedents support a contract breach claim here?", true)
	if err == nil {
		t.Fatal("expected an error after session deletion")
	}
}
