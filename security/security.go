// Package security composes input validation and PII redaction into the
// single enforcement gate every user-supplied request passes through before
// reaching retrieval or the LLM, and writes the append-only security audit
// log.
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/lexiq-ai/lexiq/redact"
	"github.com/lexiq-ai/lexiq/validate"
)

// Config bundles the validator and redactor thresholds the enforcer applies.
type Config struct {
	Validate validate.Config
	Redact   redact.Config
	AuditLogPath string
}

// DefaultConfig returns the documented defaults for both sub-components.
func DefaultConfig() Config {
	return Config{
		Validate: validate.DefaultConfig(),
		Redact:   redact.DefaultConfig(),
	}
}

// Result is the outcome of running a request through the enforcer.
type Result struct {
	Success       bool
	ProcessedText string
	PIITypes      []redact.Kind
	NumRedactions int
	Violations    []validate.Violation
	RiskScore     float64
}

// Enforcer runs the Input Validator then the PII Redactor, and records one
// audit line per call.
type Enforcer struct {
	cfg Config
	log *auditLog
}

// New creates an Enforcer. cfg.AuditLogPath is the append-only JSON-lines file
// to write security records to; an empty path disables logging.
func New(cfg Config) (*Enforcer, error) {
	var log *auditLog
	if cfg.AuditLogPath != "" {
		l, err := newAuditLog(cfg.AuditLogPath)
		if err != nil {
			return nil, err
		}
		log = l
	}
	return &Enforcer{cfg: cfg, log: log}, nil
}

// Close releases the underlying audit log file handle, if any.
func (e *Enforcer) Close() error {
	if e.log == nil {
		return nil
	}
	return e.log.Close()
}

// Process runs validation then redaction on input, writes an audit record,
// and returns the sanitized text. On validation failure, no redaction runs
// and the returned text is empty.
func (e *Enforcer) Process(ctx context.Context, userID, ip, input string) Result {
	valResult := validate.Validate(e.cfg.Validate, input)

	record := auditRecord{
		RequestID:         nextRequestID(),
		UserID:            userID,
		IPAddress:         ip,
		Action:            "process_input",
		OriginalInputHash: sha256Hex(input),
		ValidationPassed:  valResult.IsValid,
		RiskScore:         valResult.RiskScore,
	}
	for _, v := range valResult.Violations {
		record.Violations = append(record.Violations, v.Category)
	}

	if !valResult.IsValid {
		e.writeAudit(record)
		return Result{
			Success:    false,
			Violations: valResult.Violations,
			RiskScore:  valResult.RiskScore,
		}
	}

	redResult := redact.Redact(e.cfg.Redact, input)
	record.NumRedactions = len(redResult.Detections)
	record.RedactionConfidenceScore = redResult.Confidence
	seenKinds := make(map[redact.Kind]bool)
	var piiTypes []redact.Kind
	for _, d := range redResult.Detections {
		if !seenKinds[d.Kind] {
			seenKinds[d.Kind] = true
			piiTypes = append(piiTypes, d.Kind)
			record.PIITypesDetected = append(record.PIITypesDetected, string(d.Kind))
		}
	}

	e.writeAudit(record)

	return Result{
		Success:       true,
		ProcessedText: redResult.RedactedText,
		PIITypes:      piiTypes,
		NumRedactions: len(redResult.Detections),
		RiskScore:     valResult.RiskScore,
	}
}

func (e *Enforcer) writeAudit(r auditRecord) {
	if e.log == nil {
		return
	}
	e.log.Write(r)
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
