package lexiq

import "errors"

// These sentinels name the engine's failure kinds. Of them, only
// ErrValidationFailed is currently returned (by Engine.Analyze); the other
// failures surface as the component packages' own errors (for example
// parser.ErrParseFailed, retrieval.ErrIndexNotReady,
// chat.ErrSessionTerminated) and are not wrapped with the values below.
var (
	// ErrParseFailed names the failure of a judgment PDF that cannot be parsed.
	ErrParseFailed = errors.New("lexiq: parse failed")

	// ErrEmptyDocument names a parsed PDF that yields no text.
	ErrEmptyDocument = errors.New("lexiq: empty document")

	// ErrIndexNotReady names a retrieval call against a Retriever with no
	// open store handle.
	ErrIndexNotReady = errors.New("lexiq: index not ready")

	// ErrEmbeddingUnavailable names an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("lexiq: embedding provider unavailable")

	// ErrLLMUnavailable names a chat/completion provider failure or timeout;
	// Analyze and the chat engine answer such failures with a degraded,
	// synthesis-free response instead of an error.
	ErrLLMUnavailable = errors.New("lexiq: llm provider unavailable")

	// ErrValidationFailed is returned by Engine.Analyze when the security
	// enforcer rejects the input. No downstream component runs.
	ErrValidationFailed = errors.New("lexiq: input validation failed")

	// ErrSessionTerminated names an operation on a deleted chat session.
	ErrSessionTerminated = errors.New("lexiq: session terminated")

	// ErrStorageUnavailable names an object store or vector index that cannot
	// be reached.
	ErrStorageUnavailable = errors.New("lexiq: storage unavailable")

	// ErrInvalidConfig names an invalid configuration value.
	ErrInvalidConfig = errors.New("lexiq: invalid configuration")
)
