package lexiq

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lexiq-ai/lexiq/chat"
	"github.com/lexiq-ai/lexiq/llm"
)

// Config holds all configuration for the LexiQ engine.
type Config struct {
	// VectorIndexPath is the full path to the SQLite database file backing
	// the vector index.
	VectorIndexPath string `json:"vector_index_path" yaml:"vector_index_path"`

	// EmbeddingDim must match the configured embedding provider's output
	// dimension.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// PDFSourceDir is the directory ingestion walks for judgment PDFs.
	PDFSourceDir string `json:"pdf_source_dir" yaml:"pdf_source_dir"`

	// Chat and Embedding name the LLM providers used for synthesis and
	// vectorization respectively.
	Chat      llm.Config `json:"chat" yaml:"chat"`
	Embedding llm.Config `json:"embedding" yaml:"embedding"`

	// ChatRateLimitRPS / EmbeddingRateLimitRPS bound outbound requests per
	// second to each provider; 0 disables limiting.
	ChatRateLimitRPS      float64 `json:"chat_rate_limit_rps" yaml:"chat_rate_limit_rps"`
	EmbeddingRateLimitRPS float64 `json:"embedding_rate_limit_rps" yaml:"embedding_rate_limit_rps"`

	// ObjectStore configures where source PDFs are archived. Bucket empty
	// means no object store is used and ingestion proceeds without
	// archiving.
	ObjectStoreBucket   string `json:"object_store_bucket" yaml:"object_store_bucket"`
	ObjectStoreRegion   string `json:"object_store_region" yaml:"object_store_region"`
	ObjectStoreEndpoint string `json:"object_store_endpoint" yaml:"object_store_endpoint"`
	ObjectStoreLocalDir string `json:"object_store_local_dir" yaml:"object_store_local_dir"` // used instead of S3 when set

	// ChatStorageBackend selects the chat session store: "inmemory" (the
	// only implemented backend) or "remote" (an interface seam only).
	ChatStorageBackend chat.Backend `json:"chat_storage_backend" yaml:"chat_storage_backend"`

	// AuditLogDir holds the security and hallucination audit logs.
	AuditLogDir string `json:"audit_log_dir" yaml:"audit_log_dir"`

	// StatuteTablePath optionally points at an xlsx workbook of valid
	// statute/article ranges; empty uses the built-in default table.
	StatuteTablePath string `json:"statute_table_path" yaml:"statute_table_path"`

	// PIIConfidenceThreshold is the minimum confidence required for the PII
	// Redactor to emit a detection.
	PIIConfidenceThreshold float64 `json:"pii_confidence_threshold" yaml:"pii_confidence_threshold"`

	// InputMinLength / InputMaxLength bound free-text submitted to the
	// Input Validator.
	InputMinLength int `json:"input_min_length" yaml:"input_min_length"`
	InputMaxLength int `json:"input_max_length" yaml:"input_max_length"`

	// MaxChunkSize bounds a chunk's body length in bytes.
	MaxChunkSize int `json:"max_chunk_size" yaml:"max_chunk_size"`

	// MaxFileUploadBytes bounds an uploaded PDF's size.
	MaxFileUploadBytes int64 `json:"max_file_upload_bytes" yaml:"max_file_upload_bytes"`
}

// DefaultConfig returns a Config with sensible defaults for local inference
// and an on-disk vector index.
func DefaultConfig() Config {
	return Config{
		VectorIndexPath: "lexiq.db",
		EmbeddingDim:    768,
		PDFSourceDir:    "./judgments",
		Chat: llm.Config{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: llm.Config{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		ChatStorageBackend:     chat.BackendInMemory,
		AuditLogDir:            "./audit",
		PIIConfidenceThreshold: 0.7,
		InputMinLength:         10,
		InputMaxLength:         50_000,
		MaxChunkSize:           2000,
		MaxFileUploadBytes:     10 * 1024 * 1024,
	}
}

// LoadConfigFromEnv starts from DefaultConfig and overrides it with
// recognized environment variables, loading a local .env file first (if
// present) the way the corpus's own config loaders do.
func LoadConfigFromEnv() Config {
	_ = godotenv.Overload()

	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("LEXIQ_VECTOR_INDEX_PATH")); v != "" {
		cfg.VectorIndexPath = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_EMBEDDING_DIM")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EmbeddingDim = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_PDF_SOURCE_DIR")); v != "" {
		cfg.PDFSourceDir = v
	}

	if v := strings.TrimSpace(os.Getenv("LEXIQ_CHAT_PROVIDER")); v != "" {
		cfg.Chat.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_CHAT_MODEL")); v != "" {
		cfg.Chat.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_CHAT_BASE_URL")); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_CHAT_API_KEY")); v != "" {
		cfg.Chat.APIKey = v
	}

	if v := strings.TrimSpace(os.Getenv("LEXIQ_EMBEDDING_PROVIDER")); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_EMBEDDING_MODEL")); v != "" {
		cfg.Embedding.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_EMBEDDING_BASE_URL")); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_EMBEDDING_API_KEY")); v != "" {
		cfg.Embedding.APIKey = v
	}

	if v := strings.TrimSpace(os.Getenv("LEXIQ_OBJECT_STORE_BUCKET")); v != "" {
		cfg.ObjectStoreBucket = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_OBJECT_STORE_REGION")); v != "" {
		cfg.ObjectStoreRegion = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_OBJECT_STORE_ENDPOINT")); v != "" {
		cfg.ObjectStoreEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_OBJECT_STORE_LOCAL_DIR")); v != "" {
		cfg.ObjectStoreLocalDir = v
	}

	if v := strings.TrimSpace(os.Getenv("LEXIQ_CHAT_STORAGE_BACKEND")); v != "" {
		cfg.ChatStorageBackend = chat.Backend(v)
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_AUDIT_LOG_DIR")); v != "" {
		cfg.AuditLogDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_STATUTE_TABLE_PATH")); v != "" {
		cfg.StatuteTablePath = v
	}

	if v := strings.TrimSpace(os.Getenv("LEXIQ_PII_CONFIDENCE_THRESHOLD")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PIIConfidenceThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_INPUT_MIN_LENGTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InputMinLength = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_INPUT_MAX_LENGTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InputMaxLength = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_MAX_CHUNK_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxChunkSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEXIQ_MAX_FILE_UPLOAD_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxFileUploadBytes = n
		}
	}

	return cfg
}
