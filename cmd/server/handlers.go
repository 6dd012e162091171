package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lexiq-ai/lexiq"
	"github.com/lexiq-ai/lexiq/chat"
)

type handler struct {
	engine *lexiq.Engine
}

func newHandler(e *lexiq.Engine) *handler {
	return &handler{engine: e}
}

// POST /ingest
// Accepts a multipart file upload and runs it through the full ingestion
// pipeline (parse, archive, chunk, embed, index).
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(h.engine.MaxFileUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart file upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	safeName := filepath.Base(header.Filename)
	tmpPath := filepath.Join(os.TempDir(), safeName)
	dst, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process file")
		slog.Error("creating temp file", "error", err)
		return
	}
	if _, err := dst.ReadFrom(file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("saving uploaded file", "error", err)
		return
	}
	dst.Close()
	defer os.Remove(tmpPath)

	result, err := h.engine.Ingest(ctx, tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		slog.Error("ingest error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /analyze
// One-shot case analysis: security enforcement, retrieval, synthesis, and
// hallucination checking. Does not create a chat session.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Minute)
	defer cancel()

	var req struct {
		UserID          string `json:"user_id"`
		CaseDescription string `json:"case_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CaseDescription == "" {
		writeError(w, http.StatusBadRequest, "case_description is required")
		return
	}

	analysis, err := h.engine.Analyze(ctx, req.UserID, clientIP(r), req.CaseDescription)
	if err != nil {
		if errors.Is(err, lexiq.ErrValidationFailed) {
			writeError(w, http.StatusBadRequest, "input failed validation or security checks")
			return
		}
		writeError(w, http.StatusInternalServerError, "analysis failed")
		slog.Error("analyze error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// POST /sessions
// Starts a new chat session anchored to a case description.
func (h *handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req struct {
		UserID    string `json:"user_id"`
		CaseText  string `json:"case_text"`
		CaseTitle string `json:"case_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	session, err := h.engine.StartSession(ctx, req.UserID, req.CaseText, req.CaseTitle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		slog.Error("start session error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /sessions/{id}/messages
func (h *handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Minute)
	defer cancel()

	sessionID := r.PathValue("id")

	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
		UseRAG  *bool  `json:"use_rag,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	resp, err := h.engine.SendMessage(ctx, sessionID, req.UserID, req.Message, useRAG)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, chat.ErrSessionTerminated):
			writeError(w, http.StatusGone, "session has been deleted")
		case errors.Is(err, lexiq.ErrValidationFailed):
			writeError(w, http.StatusBadRequest, "input failed validation or security checks")
		default:
			writeError(w, http.StatusInternalServerError, "send message failed")
			slog.Error("send message error", "session_id", sessionID, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// DELETE /sessions/{id}
func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := h.engine.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if errors.Is(err, chat.ErrSessionTerminated) {
			writeError(w, http.StatusGone, "session has been deleted")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		slog.Error("delete session error", "session_id", sessionID, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
