package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Index     IndexConfig
	Facts     FactsConfig
	Embedding EmbeddingConfig
	Rerank    RerankConfig
	Generator GeneratorConfig
	GigaChat  GigaChatConfig
	Retrieval RetrievalConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// StorageConfig selects where profiles, feedback and cached plans live.
// Driver is "file" (JSON documents under DataDir) or "postgres".
type StorageConfig struct {
	Driver  string
	DataDir string
}

type IndexConfig struct {
	SourcePath   string
	SourceName   string
	ChunkSize    int
	ChunkOverlap int
	Dimension    int
	// PersistChunks stores embedded chunks keyed by the source hash in the configured storage.
	PersistChunks bool
	// RetryInterval throttles index builds triggered by queries after a failed build.
	RetryInterval time.Duration
}

type FactsConfig struct {
	Path    string
	RootKey string
}

type EmbeddingConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

type RerankConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

type GeneratorConfig struct {
	Provider       string // gigachat | ollama
	Model          string
	OllamaHost     string
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
	RatePerSecond  float64
	Temperature    float64
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type RetrievalConfig struct {
	K             int
	TopN          int
	ThinThreshold int
}

type CacheConfig struct {
	LRUSize int
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type AdminConfig struct {
	Username     string
	PasswordHash string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too (Docker/K8s)
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "4000"),
			ReadTimeout:  getSeconds("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getSeconds("SERVER_WRITE_TIMEOUT", 120),
			AllowOrigins: getEnv("SERVER_ALLOW_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "retire_rag"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getInt("DB_MAX_CONNS", 10)),
		},
		Storage: StorageConfig{
			Driver:  getEnv("STORAGE_DRIVER", "file"),
			DataDir: getEnv("STORAGE_DATA_DIR", "data"),
		},
		Index: IndexConfig{
			SourcePath:    getEnv("INDEX_SOURCE_PATH", "data/retirement_facts.txt"),
			SourceName:    getEnv("INDEX_SOURCE_NAME", "retirement_facts.txt"),
			ChunkSize:     getInt("INDEX_CHUNK_SIZE", 800),
			ChunkOverlap:  getInt("INDEX_CHUNK_OVERLAP", 200),
			Dimension:     getInt("INDEX_DIMENSION", 384),
			PersistChunks: getBool("INDEX_PERSIST_CHUNKS", true),
			RetryInterval: getSeconds("INDEX_RETRY_INTERVAL", 30),
		},
		Facts: FactsConfig{
			Path:    getEnv("FACTS_PATH", "data/retirement_data.json"),
			RootKey: getEnv("FACTS_ROOT_KEY", "retirement_facts"),
		},
		Embedding: EmbeddingConfig{
			Host:    getEnv("EMBEDDING_HOST", "http://localhost:11434"),
			Model:   getEnv("EMBEDDING_MODEL", "all-minilm"),
			Timeout: getSeconds("EMBEDDING_TIMEOUT", 30),
		},
		Rerank: RerankConfig{
			URL:     getEnv("RERANK_URL", "http://localhost:8081"),
			Model:   getEnv("RERANK_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
			Timeout: getSeconds("RERANK_TIMEOUT", 30),
		},
		Generator: GeneratorConfig{
			Provider:       getEnv("GENERATOR_PROVIDER", "gigachat"),
			Model:          getEnv("GENERATOR_MODEL", ""),
			OllamaHost:     getEnv("GENERATOR_OLLAMA_HOST", "http://localhost:11434"),
			MaxRetries:     getInt("GENERATOR_MAX_RETRIES", 2),
			InitialBackoff: getSeconds("GENERATOR_INITIAL_BACKOFF", 1),
			Timeout:        getSeconds("GENERATOR_TIMEOUT", 90),
			RatePerSecond:  getFloat("GENERATOR_RATE_PER_SECOND", 2),
			Temperature:    getFloat("GENERATOR_TEMPERATURE", 0.3),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getBool("GIGACHAT_INSECURE_SKIP_VERIFY", false),
		},
		Retrieval: RetrievalConfig{
			K:             getInt("RETRIEVAL_K", 8),
			TopN:          getInt("RETRIEVAL_TOP_N", 3),
			ThinThreshold: getInt("RETRIEVAL_THIN_THRESHOLD", 5),
		},
		Cache: CacheConfig{
			LRUSize: getInt("PLAN_CACHE_LRU_SIZE", 512),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(getInt("JWT_EXPIRATION_HOURS", 12)) * time.Hour,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getInt(key, defaultSeconds)) * time.Second
}
