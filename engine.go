// Package lexiq wires the PDF parser, object store, chunker, embedding and
// vector index, retriever, similarity engine, excerpt reader, prompt
// builder, LLM client, input validator, PII redactor, security enforcer,
// hallucination detector, and chat engine into the single Engine
// operations: Ingest, Analyze, and the chat session lifecycle.
package lexiq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexiq-ai/lexiq/chat"
	"github.com/lexiq-ai/lexiq/chunker"
	"github.com/lexiq-ai/lexiq/excerpt"
	"github.com/lexiq-ai/lexiq/hallucination"
	"github.com/lexiq-ai/lexiq/ingest"
	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/objectstore"
	"github.com/lexiq-ai/lexiq/parser"
	"github.com/lexiq-ai/lexiq/prompt"
	"github.com/lexiq-ai/lexiq/retrieval"
	"github.com/lexiq-ai/lexiq/security"
	"github.com/lexiq-ai/lexiq/similarity"
	"github.com/lexiq-ai/lexiq/store"
)

// defaultAnalysisHitLimit is the number of precedent cases surfaced for a
// fresh case analysis (Mode A).
const defaultAnalysisHitLimit = 5

// Engine is the assembled LexiQ research engine.
type Engine struct {
	cfg Config

	store       *store.Store
	objects     objectstore.Store // nil disables source-PDF archiving
	chatLLM     llm.Provider
	embedLLM    llm.Provider
	ingestor    *ingest.Pipeline
	retriever   *retrieval.Retriever
	similarity  *similarity.Engine
	excerpts    *excerpt.Reader
	security    *security.Enforcer
	hallucinate *hallucination.Detector
	chat        *chat.Engine
}

// New constructs an Engine from cfg: opens the vector index, builds the
// configured LLM providers (wrapped with client-side rate limiting),
// configures the object store, and wires every downstream component.
func New(cfg Config) (*Engine, error) {
	s, err := store.New(cfg.VectorIndexPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("lexiq: opening vector index: %w", err)
	}

	chatLLM, err := llm.NewProvider(cfg.Chat)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("lexiq: building chat provider: %w", err)
	}
	embedLLM, err := llm.NewProvider(cfg.Embedding)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("lexiq: building embedding provider: %w", err)
	}
	chatLLM = llm.NewRateLimited(chatLLM, cfg.ChatRateLimitRPS, 0)
	embedLLM = llm.NewRateLimited(embedLLM, 0, cfg.EmbeddingRateLimitRPS)

	objects, err := buildObjectStore(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.AuditLogDir != "" {
		if err := os.MkdirAll(cfg.AuditLogDir, 0o755); err != nil {
			s.Close()
			return nil, fmt.Errorf("lexiq: creating audit log dir: %w", err)
		}
	}

	secCfg := security.DefaultConfig()
	secCfg.Validate.MinLength = cfg.InputMinLength
	secCfg.Validate.MaxLength = cfg.InputMaxLength
	secCfg.Validate.MaxFileSizeBytes = cfg.MaxFileUploadBytes
	secCfg.Redact.ConfidenceThreshold = cfg.PIIConfidenceThreshold
	if cfg.AuditLogDir != "" {
		secCfg.AuditLogPath = filepath.Join(cfg.AuditLogDir, "security.log")
	}
	enforcer, err := security.New(secCfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("lexiq: building security enforcer: %w", err)
	}

	hdCfg := hallucination.Config{TablePath: cfg.StatuteTablePath}
	if cfg.AuditLogDir != "" {
		hdCfg.AuditLogPath = filepath.Join(cfg.AuditLogDir, "hallucination.log")
	}

	retriever := retrieval.New(s, embedLLM)
	detector, err := hallucination.New(hdCfg, retriever)
	if err != nil {
		s.Close()
		enforcer.Close()
		return nil, fmt.Errorf("lexiq: building hallucination detector: %w", err)
	}

	chatStore, err := chat.NewStore(cfg.ChatStorageBackend)
	if err != nil {
		s.Close()
		enforcer.Close()
		detector.Close()
		return nil, fmt.Errorf("lexiq: building chat store: %w", err)
	}

	simEngine := similarity.New(retriever)
	excerpts := excerpt.New(objects)
	ingestor := ingest.New(ingest.Config{Chunker: chunker.Config{MaxChunkSize: cfg.MaxChunkSize}}, &parser.PDFParser{}, objects, embedLLM, s)
	chatEngine := chat.New(chatStore, enforcer, simEngine, excerpts, retriever, chatLLM, detector)

	return &Engine{
		cfg:         cfg,
		store:       s,
		objects:     objects,
		chatLLM:     chatLLM,
		embedLLM:    embedLLM,
		ingestor:    ingestor,
		retriever:   retriever,
		similarity:  simEngine,
		excerpts:    excerpts,
		security:    enforcer,
		hallucinate: detector,
		chat:        chatEngine,
	}, nil
}

// Close releases the vector index handle and audit log file handles.
func (e *Engine) Close() error {
	e.security.Close()
	e.hallucinate.Close()
	return e.store.Close()
}

// Store exposes the underlying vector index for callers that need direct
// access (e.g. administrative tooling).
func (e *Engine) Store() *store.Store {
	return e.store
}

// MaxFileUploadBytes returns the configured upload size limit, for HTTP
// handlers that need to bound request bodies before they reach Ingest.
func (e *Engine) MaxFileUploadBytes() int64 {
	return e.cfg.MaxFileUploadBytes
}

// Ingest runs the full ingestion pipeline (parse, archive, chunk, embed,
// index) on a single judgment PDF.
func (e *Engine) Ingest(ctx context.Context, path string) (*ingest.Result, error) {
	return e.ingestor.Ingest(ctx, path)
}

// Analysis is the result of analyzing a new case description.
type Analysis struct {
	Text            string
	CitedPrecedents []string
	Hallucination   *hallucination.Result
	Degraded        bool
}

// Analyze runs a one-shot case analysis: security enforcement, Mode A
// retrieval, prompt assembly, LLM synthesis, and hallucination checking. It
// does not create a chat session; use StartSession for a continuing
// conversation over the same case.
func (e *Engine) Analyze(ctx context.Context, userID, ip, caseDescription string) (*Analysis, error) {
	secResult := e.security.Process(ctx, userID, ip, caseDescription)
	if !secResult.Success {
		return nil, fmt.Errorf("lexiq: %w", ErrValidationFailed)
	}

	hits, err := e.similarity.DedupedCases(ctx, secResult.ProcessedText, defaultAnalysisHitLimit)
	if err != nil {
		return nil, fmt.Errorf("lexiq: retrieving precedents: %w", err)
	}

	promptHits := make([]prompt.Hit, 0, len(hits))
	var citations []string
	for _, h := range hits {
		promptHits = append(promptHits, prompt.Hit{
			CaseTitle:  h.Chunk.CaseTitle,
			Citation:   h.Chunk.Citation,
			PageNumber: h.Chunk.PageNumber,
			Section:    h.Chunk.Section,
			Body:       h.Chunk.Content,
			URL:        h.Chunk.DocumentURL,
		})
		citations = append(citations, h.Chunk.Citation)
	}

	rendered := prompt.Build(prompt.Request{Input: secResult.ProcessedText, Hits: promptHits})

	resp, err := e.chatLLM.Chat(ctx, llm.ChatRequest{Messages: []llm.Message{{Role: "user", Content: rendered}}})
	degraded := false
	text := ""
	if err != nil {
		degraded = true
		text = "The language model is currently unavailable. Retrieved precedents are listed below without synthesis."
	} else {
		text = resp.Content
	}

	var hallucinationResult *hallucination.Result
	if !degraded {
		r := e.hallucinate.Check(ctx, userID, caseDescription, text)
		hallucinationResult = &r
	}

	return &Analysis{
		Text:            text,
		CitedPrecedents: citations,
		Hallucination:   hallucinationResult,
		Degraded:        degraded,
	}, nil
}

// StartSession anchors a chat session to a case description, per the chat
// engine's start_session operation.
func (e *Engine) StartSession(ctx context.Context, userID, caseText, caseTitle string) (*chat.Session, error) {
	return e.chat.StartSession(ctx, userID, caseText, caseTitle)
}

// SendMessage continues a chat session, per the chat engine's send_message
// operation.
func (e *Engine) SendMessage(ctx context.Context, sessionID, userID, message string, useRAG bool) (*chat.Response, error) {
	return e.chat.SendMessage(ctx, sessionID, userID, message, useRAG)
}

// DeleteSession terminates a chat session.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.chat.DeleteSession(ctx, sessionID)
}

func buildObjectStore(cfg Config) (objectstore.Store, error) {
	if cfg.ObjectStoreLocalDir != "" {
		return objectstore.NewLocalStore(cfg.ObjectStoreLocalDir)
	}
	if cfg.ObjectStoreBucket == "" {
		return nil, nil
	}
	return objectstore.NewS3Store(context.Background(), objectstore.Config{
		Bucket:   cfg.ObjectStoreBucket,
		Region:   cfg.ObjectStoreRegion,
		Endpoint: cfg.ObjectStoreEndpoint,
	})
}

