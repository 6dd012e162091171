// Package chat implements the session-oriented conversational layer: a
// session anchors a case description, and each subsequent message is
// re-grounded by retrieval, synthesized by the LLM, and checked for
// hallucinated references before being appended to the session history.
package chat

import (
	"sync"
	"time"
)

// State is a session's position in its lifecycle.
type State string

const (
	StateFresh      State = "fresh"
	StateActive     State = "active"
	StateTerminated State = "terminated"
)

// Turn is one message in a session, user or assistant.
type Turn struct {
	Role          string // "user" or "assistant"
	Content       string
	Citations     []string
	Degraded      bool // true when an assistant turn fell back to a retrieval-only listing
	Hallucination *HallucinationReport
	CreatedAt     time.Time
}

// HallucinationReport summarizes the hallucination check run on one
// assistant turn, carried alongside it without blocking the response.
type HallucinationReport struct {
	HasHallucinations bool
	SuspectedRefs      []string
	ConfidenceScore    float64
}

// Session is one ongoing conversation anchored to an originating case.
type Session struct {
	ID        string
	UserID    string
	CaseTitle string
	CaseText  string
	State     State
	Turns     []Turn
	CreatedAt time.Time

	mu sync.Mutex // serializes send_message calls on this session
}

// lock acquires the session's turn-append lock. Concurrent send_message
// calls on the same session id are strictly serialized: the second blocks
// until the first commits its turns, per the session store's
// read-modify-append write discipline.
func (s *Session) lock()   { s.mu.Lock() }
func (s *Session) unlock() { s.mu.Unlock() }
