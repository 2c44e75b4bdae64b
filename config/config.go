package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the lookback service
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Coach   CoachConfig   `mapstructure:"coach"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	return nil
}

// LLMConfig contains LLM provider configuration
type LLMConfig struct {
	Provider       ProviderConfig `mapstructure:"provider"`
	ChatModel      string         `mapstructure:"chat_model"`
	AnalysisModel  string         `mapstructure:"analysis_model"`
	EmbeddingModel string         `mapstructure:"embedding_model"`
}

// ProviderConfig represents the upstream model API configuration
type ProviderConfig struct {
	Type        string        `mapstructure:"type"` // openai-compatible
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.AnalysisModel) == "" {
		return fmt.Errorf("llm.analysis_model is required")
	}
	if strings.TrimSpace(l.EmbeddingModel) == "" {
		return fmt.Errorf("llm.embedding_model is required")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings. Redis is optional and only
// backs the memory-context read cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func (r RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required when redis is enabled")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when redis is enabled")
	}
	return nil
}

// SearchConfig controls semantic retrieval behaviour.
type SearchConfig struct {
	DefaultTopK         int `mapstructure:"default_top_k"`
	MaxTopK             int `mapstructure:"max_top_k"`
	EmbeddingDimensions int `mapstructure:"embedding_dimensions"`
	SnippetLength       int `mapstructure:"snippet_length"`
}

// Normalize applies defaults for unset search values.
func (s SearchConfig) Normalize() SearchConfig {
	if s.DefaultTopK <= 0 {
		s.DefaultTopK = 6
	}
	if s.MaxTopK <= 0 {
		s.MaxTopK = 12
	}
	if s.EmbeddingDimensions <= 0 {
		s.EmbeddingDimensions = 1536
	}
	if s.SnippetLength <= 0 {
		s.SnippetLength = 400
	}
	return s
}

// MemoryConfig controls the durable memory context store.
type MemoryConfig struct {
	ContextLimit int `mapstructure:"context_limit"`
	MaxListLimit int `mapstructure:"max_list_limit"`
}

// Normalize applies defaults for unset memory values.
func (m MemoryConfig) Normalize() MemoryConfig {
	if m.ContextLimit <= 0 {
		m.ContextLimit = 20
	}
	if m.MaxListLimit <= 0 {
		m.MaxListLimit = 50
	}
	return m
}

// CoachConfig controls coaching generation.
type CoachConfig struct {
	TaskTimeout      time.Duration `mapstructure:"task_timeout"`
	MemoryLimit      int           `mapstructure:"memory_limit"`
	MaxActionItems   int           `mapstructure:"max_action_items"`
	MaxFollowUps     int           `mapstructure:"max_follow_ups"`
	MaxFocusPoints   int           `mapstructure:"max_focus_points"`
	ChatMemoryLimit  int           `mapstructure:"chat_memory_limit"`
	ChatContentLimit int           `mapstructure:"chat_content_limit"`
}

// Normalize applies defaults for unset coach values.
func (c CoachConfig) Normalize() CoachConfig {
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 45 * time.Second
	}
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 20
	}
	if c.MaxActionItems <= 0 {
		c.MaxActionItems = 4
	}
	if c.MaxFollowUps <= 0 {
		c.MaxFollowUps = 4
	}
	if c.MaxFocusPoints <= 0 {
		c.MaxFocusPoints = 3
	}
	if c.ChatMemoryLimit <= 0 {
		c.ChatMemoryLimit = 6
	}
	if c.ChatContentLimit <= 0 {
		c.ChatContentLimit = 1200
	}
	return c
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.provider.type", "openai")
	viper.SetDefault("llm.provider.timeout", "30s")
	viper.SetDefault("llm.chat_model", "gpt-4o-mini")
	viper.SetDefault("llm.analysis_model", "gpt-4o-mini")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-small")
	viper.SetDefault("storage.redis.cache_ttl", "30s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LOOKBACK")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Search = config.Search.Normalize()
	config.Memory = config.Memory.Normalize()
	config.Coach = config.Coach.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}
