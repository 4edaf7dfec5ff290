package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where noterag stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI Configuration
	AIEmbeddingProvider   string // NOTERAG_AI_EMBEDDING_PROVIDER (default: siliconflow)
	AIEmbeddingModel      string // NOTERAG_AI_EMBEDDING_MODEL (default: BAAI/bge-m3)
	AIEmbeddingDimensions int    // NOTERAG_AI_EMBEDDING_DIMENSIONS (default: 1024)
	AILLMProvider         string // NOTERAG_AI_LLM_PROVIDER (default: deepseek)
	AILLMModel            string // NOTERAG_AI_LLM_MODEL (default: deepseek-chat)
	AISiliconFlowAPIKey   string // NOTERAG_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL  string // NOTERAG_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)
	AIDeepSeekAPIKey      string // NOTERAG_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL     string // NOTERAG_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AIOpenAIAPIKey        string // NOTERAG_AI_OPENAI_API_KEY
	AIOpenAIBaseURL       string // NOTERAG_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIOllamaBaseURL       string // NOTERAG_AI_OLLAMA_BASE_URL (default: http://localhost:11434)
	AIAnthropicAPIKey     string // NOTERAG_AI_ANTHROPIC_API_KEY, answers go to Anthropic when set
	AIAnthropicModel      string // NOTERAG_AI_ANTHROPIC_MODEL (default: claude-3-5-sonnet-latest)
	AIRerankModel         string // NOTERAG_AI_RERANK_MODEL, enables reranking of retrieved notes when set

	// Vector index configuration
	VectorDriver     string // NOTERAG_VECTOR_DRIVER: pgvector, qdrant or memory
	QdrantHost       string // NOTERAG_QDRANT_HOST (default: localhost)
	QdrantPort       int    // NOTERAG_QDRANT_PORT (default: 6334)
	QdrantAPIKey     string // NOTERAG_QDRANT_API_KEY
	QdrantCollection string // NOTERAG_QDRANT_COLLECTION (default: notes)

	// Retrieval configuration
	ChunkSize     int // NOTERAG_CHUNK_SIZE (default: 1000)
	ChunkOverlap  int // NOTERAG_CHUNK_OVERLAP (default: 200)
	RetrievalTopK int // NOTERAG_RETRIEVAL_TOP_K (default: 1)

	// Ingestion workflow configuration
	WorkflowRetryLimit  int           // NOTERAG_WORKFLOW_RETRY_LIMIT (default: 5)
	WorkflowRetryDelay  time.Duration // NOTERAG_WORKFLOW_RETRY_DELAY (default: 10s)
	WorkflowStepTimeout time.Duration // NOTERAG_WORKFLOW_STEP_TIMEOUT (default: 10m)
	WorkflowConcurrency int           // NOTERAG_WORKFLOW_CONCURRENCY (default: 3)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAnthropicEnabled reports whether answers should be generated by Anthropic.
func (p *Profile) IsAnthropicEnabled() bool {
	return p.AIAnthropicAPIKey != ""
}

// stringOrDefault returns the configured value for key or the default value.
func stringOrDefault(v *viper.Viper, key, defaultValue string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func intOrDefault(v *viper.Viper, key string, defaultValue int) int {
	value := v.GetString(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid integer setting", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return n
}

func durationOrDefault(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	value := v.GetString(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("ignoring invalid duration setting", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return d
}

// NewEnvViper returns a viper instance that resolves key "chunk_size" from
// NOTERAG_CHUNK_SIZE, and so on for every setting.
func NewEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("noterag")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// FromEnv loads AI, vector and workflow configuration from NOTERAG_* environment variables.
func (p *Profile) FromEnv() {
	p.FromViper(NewEnvViper())
}

// FromViper loads AI, vector and workflow configuration from v. Keys are the
// lower-case environment names without the NOTERAG_ prefix, so a config file
// sets chunk_size where the environment sets NOTERAG_CHUNK_SIZE.
func (p *Profile) FromViper(v *viper.Viper) {
	p.AIEmbeddingProvider = stringOrDefault(v, "ai_embedding_provider", "siliconflow")
	p.AIEmbeddingModel = stringOrDefault(v, "ai_embedding_model", "BAAI/bge-m3")
	p.AIEmbeddingDimensions = intOrDefault(v, "ai_embedding_dimensions", 1024)
	p.AILLMProvider = stringOrDefault(v, "ai_llm_provider", "deepseek")
	p.AILLMModel = stringOrDefault(v, "ai_llm_model", "deepseek-chat")
	p.AISiliconFlowAPIKey = v.GetString("ai_siliconflow_api_key")
	p.AISiliconFlowBaseURL = stringOrDefault(v, "ai_siliconflow_base_url", "https://api.siliconflow.cn/v1")
	p.AIDeepSeekAPIKey = v.GetString("ai_deepseek_api_key")
	p.AIDeepSeekBaseURL = stringOrDefault(v, "ai_deepseek_base_url", "https://api.deepseek.com")
	p.AIOpenAIAPIKey = v.GetString("ai_openai_api_key")
	p.AIOpenAIBaseURL = stringOrDefault(v, "ai_openai_base_url", "https://api.openai.com/v1")
	p.AIOllamaBaseURL = stringOrDefault(v, "ai_ollama_base_url", "http://localhost:11434")
	p.AIAnthropicAPIKey = v.GetString("ai_anthropic_api_key")
	p.AIAnthropicModel = stringOrDefault(v, "ai_anthropic_model", "claude-3-5-sonnet-latest")
	p.AIRerankModel = v.GetString("ai_rerank_model")

	p.VectorDriver = v.GetString("vector_driver")
	p.QdrantHost = stringOrDefault(v, "qdrant_host", "localhost")
	p.QdrantPort = intOrDefault(v, "qdrant_port", 6334)
	p.QdrantAPIKey = v.GetString("qdrant_api_key")
	p.QdrantCollection = stringOrDefault(v, "qdrant_collection", "notes")

	p.ChunkSize = intOrDefault(v, "chunk_size", 1000)
	p.ChunkOverlap = intOrDefault(v, "chunk_overlap", 200)
	p.RetrievalTopK = intOrDefault(v, "retrieval_top_k", 1)

	p.WorkflowRetryLimit = intOrDefault(v, "workflow_retry_limit", 5)
	p.WorkflowRetryDelay = durationOrDefault(v, "workflow_retry_delay", 10*time.Second)
	p.WorkflowStepTimeout = durationOrDefault(v, "workflow_step_timeout", 10*time.Minute)
	p.WorkflowConcurrency = intOrDefault(v, "workflow_concurrency", 3)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "noterag")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/noterag"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("noterag_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	// pgvector keeps vectors next to the notes, which only postgres can do.
	if p.VectorDriver == "" {
		if p.Driver == "postgres" {
			p.VectorDriver = "pgvector"
		} else {
			p.VectorDriver = "memory"
		}
	}
	switch p.VectorDriver {
	case "pgvector":
		if p.Driver != "postgres" {
			return errors.Errorf("vector driver pgvector requires the postgres driver, got %q", p.Driver)
		}
	case "qdrant", "memory":
	default:
		return errors.Errorf("unknown vector driver: %s", p.VectorDriver)
	}

	if p.ChunkOverlap >= p.ChunkSize && p.ChunkSize > 0 {
		return errors.Errorf("chunk overlap %d must be smaller than chunk size %d", p.ChunkOverlap, p.ChunkSize)
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = 1
	}
	if p.WorkflowConcurrency <= 0 {
		p.WorkflowConcurrency = 1
	}

	return nil
}
