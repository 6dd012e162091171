package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexiq-ai/lexiq/hallucination"
	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/prompt"
	"github.com/lexiq-ai/lexiq/retrieval"
	"github.com/lexiq-ai/lexiq/security"
)

// followUpLimit bounds how many FTS hits seed follow-up question
// suggestions per turn.
const followUpLimit = 3

// defaultHitLimit is the number of precedents retrieved per message, per
// SPEC_FULL.md §4.16 / spec.md §4.15.
const defaultHitLimit = 5

// excerptCharLimit bounds how much of a fetched page excerpt is injected
// per hit.
const excerptCharLimit = 1000

// historyWindow caps how many prior turns are included in a prompt.
const historyWindow = 10

// llmTimeout is the long timeout send_message gives the LLM call before
// falling back to a degraded, retrieval-only response.
const llmTimeout = 180 * time.Second

// similaritySource is the narrow retrieval capability the engine needs.
type similaritySource interface {
	DedupedCases(ctx context.Context, query string, k int) ([]retrieval.Hit, error)
}

// excerptSource is the narrow excerpt-fetching capability the engine needs.
type excerptSource interface {
	ExtractPageContent(ctx context.Context, url string, pageNumber int) string
}

// followUpSource is the narrow FTS capability backing the optional
// session-topic follow-up suggestion step. It is never part of the core
// retrieval contract (see similaritySource); a nil followUpSource simply
// disables follow-up suggestions.
type followUpSource interface {
	FollowUpSuggestions(ctx context.Context, topic string, limit int) ([]retrieval.Hit, error)
}

// Engine orchestrates start_session / send_message / delete_session.
type Engine struct {
	store       Store
	security    *security.Enforcer
	similarity  similaritySource
	excerpts    excerptSource
	followUp    followUpSource
	chatLLM     llm.Provider
	hallucinate *hallucination.Detector
}

// New builds a chat Engine. excerpts and followUp may be nil to skip
// page-excerpt fetching and follow-up suggestion respectively.
func New(store Store, sec *security.Enforcer, sim similaritySource, exc excerptSource, fu followUpSource, chatLLM llm.Provider, hd *hallucination.Detector) *Engine {
	return &Engine{store: store, security: sec, similarity: sim, excerpts: exc, followUp: fu, chatLLM: chatLLM, hallucinate: hd}
}

// StartSession anchors a new, Fresh session to a case description and
// title. It runs no retrieval and stores no initial turn; each SendMessage
// retrieves precedents against the stored case text plus the new message.
func (e *Engine) StartSession(ctx context.Context, userID, caseText, caseTitle string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CaseTitle: caseTitle,
		CaseText:  caseText,
		State:     StateFresh,
		CreatedAt: time.Now(),
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("chat: creating session: %w", err)
	}
	return s, nil
}

// Response is what send_message returns to the caller.
type Response struct {
	Text              string
	CitedPrecedents   []string
	FollowUpQuestions []string
	Hallucination     *HallucinationReport
	Degraded          bool
}

// SendMessage runs one conversational turn: validate and redact the
// message, retrieve grounding precedents, optionally fetch page excerpts,
// build and send the prompt, check the answer for hallucinated references,
// and append both turns to the session. A concurrent call on the same
// session blocks until this one commits.
func (e *Engine) SendMessage(ctx context.Context, sessionID, userID, message string, useRAG bool) (*Response, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State == StateTerminated {
		return nil, ErrSessionTerminated
	}

	session.lock()
	defer session.unlock()

	secResult := e.security.Process(ctx, userID, "", message)
	if !secResult.Success {
		return nil, fmt.Errorf("chat: %w", errValidationFailed(secResult))
	}
	sanitized := secResult.ProcessedText

	var hits []retrieval.Hit
	if useRAG && e.similarity != nil {
		query := session.CaseText + "\n" + sanitized
		hits, err = e.similarity.DedupedCases(ctx, query, defaultHitLimit)
		if err != nil {
			slog.Warn("chat: retrieval failed, continuing without precedents", "session_id", sessionID, "error", err)
		}
	}

	promptHits := make([]prompt.Hit, 0, len(hits))
	var citations []string
	for _, h := range hits {
		excerptText := ""
		if e.excerpts != nil && h.Chunk.DocumentURL != "" {
			excerptText = truncate(e.excerpts.ExtractPageContent(ctx, h.Chunk.DocumentURL, h.Chunk.PageNumber), excerptCharLimit)
		}
		promptHits = append(promptHits, prompt.Hit{
			CaseTitle:  h.Chunk.CaseTitle,
			Citation:   h.Chunk.Citation,
			PageNumber: h.Chunk.PageNumber,
			Section:    h.Chunk.Section,
			Excerpt:    excerptText,
			Body:       h.Chunk.Content,
			URL:        h.Chunk.DocumentURL,
		})
		citations = append(citations, h.Chunk.Citation)
	}

	priorTurns := recentTurns(session.Turns, historyWindow)
	req := prompt.Request{Input: sanitized, PriorTurns: priorTurns, Hits: promptHits}
	rendered := prompt.Build(req)

	userTurn := Turn{Role: "user", Content: sanitized, CreatedAt: time.Now()}

	assistantTurn, resp := e.synthesize(ctx, sessionID, userID, session.CaseText+"\n"+sanitized, rendered, citations)

	session.Turns = append(session.Turns, userTurn, assistantTurn)
	session.State = StateActive

	return resp, nil
}

// synthesize calls the LLM with a bounded timeout and, on failure, falls
// back to a deterministic listing of the retrieval hits marked degraded.
// The resulting answer is then checked for hallucinated references, which
// annotate but never block the response.
func (e *Engine) synthesize(ctx context.Context, sessionID, userID, query, rendered string, citations []string) (Turn, *Response) {
	callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	resp, err := e.chatLLM.Chat(callCtx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: rendered}},
	})

	degraded := false
	answer := ""
	if err != nil {
		slog.Warn("chat: llm call failed, falling back to degraded response", "session_id", sessionID, "error", err)
		degraded = true
		answer = degradedAnswer(citations)
	} else {
		answer = resp.Content
	}

	var report *HallucinationReport
	if e.hallucinate != nil && !degraded {
		result := e.hallucinate.Check(ctx, userID, query, answer)
		report = &HallucinationReport{
			HasHallucinations: result.HasHallucinations,
			ConfidenceScore:   result.ConfidenceScore,
		}
		for _, r := range result.SuspectedFakeRefs {
			report.SuspectedRefs = append(report.SuspectedRefs, r.Raw)
		}
	}

	var followUps []string
	if e.followUp != nil && !degraded {
		followUps = e.buildFollowUps(ctx, sessionID, query, citations)
	}

	turn := Turn{
		Role:          "assistant",
		Content:       answer,
		Citations:     citations,
		Degraded:      degraded,
		Hallucination: report,
		CreatedAt:     time.Now(),
	}

	return turn, &Response{
		Text:              answer,
		CitedPrecedents:   citations,
		FollowUpQuestions: followUps,
		Hallucination:     report,
		Degraded:          degraded,
	}
}

// buildFollowUps ranks the query against the full-text index as a secondary
// signal distinct from the vector-similarity retrieval already used for
// grounding, then turns the top hits not already cited into suggested
// follow-up questions. FTS errors are logged and otherwise ignored; a
// missing suggestion list never blocks a response.
func (e *Engine) buildFollowUps(ctx context.Context, sessionID, query string, cited []string) []string {
	hits, err := e.followUp.FollowUpSuggestions(ctx, query, followUpLimit+len(cited))
	if err != nil {
		slog.Warn("chat: follow-up lookup failed", "session_id", sessionID, "error", err)
		return nil
	}

	alreadyCited := make(map[string]bool, len(cited))
	for _, c := range cited {
		alreadyCited[c] = true
	}

	var questions []string
	for _, h := range hits {
		if alreadyCited[h.Chunk.Citation] || h.Chunk.CaseTitle == "" {
			continue
		}
		alreadyCited[h.Chunk.Citation] = true
		questions = append(questions, fmt.Sprintf("What does %s say about this?", h.Chunk.CaseTitle))
		if len(questions) == followUpLimit {
			break
		}
	}
	return questions
}

// DeleteSession transitions a session to Terminated. All subsequent
// operations on the session id fail with ErrSessionTerminated.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.store.Delete(ctx, sessionID)
}

func recentTurns(turns []Turn, window int) []prompt.Turn {
	start := 0
	if len(turns) > window {
		start = len(turns) - window
	}
	out := make([]prompt.Turn, 0, len(turns)-start)
	for _, t := range turns[start:] {
		out = append(out, prompt.Turn{Role: t.Role, Content: t.Content})
	}
	return out
}

func degradedAnswer(citations []string) string {
	if len(citations) == 0 {
		return "The language model is currently unavailable. No precedents were retrieved for this message."
	}
	return "The language model is currently unavailable. Retrieved precedents: " + strings.Join(citations, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func errValidationFailed(r security.Result) error {
	if len(r.Violations) == 0 {
		return fmt.Errorf("validation failed")
	}
	return fmt.Errorf("validation failed: %s", r.Violations[0].Category)
}
