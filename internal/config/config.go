package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/textmatch"
)

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Bridge  BridgeConfig  `toml:"bridge"`
	MCP     MCPConfig     `toml:"mcp"`
	GRPC    GRPCConfig    `toml:"grpc"`
	Log     LogConfig     `toml:"log"`
	Ranking RankingConfig `toml:"ranking"`
	Query   QueryConfig   `toml:"query"`
}

type StoreConfig struct {
	MessagesPath  string   `toml:"messages_path"`
	DirectoryPath string   `toml:"directory_path"`
	BusyTimeout   Duration `toml:"busy_timeout"`
}

type BridgeConfig struct {
	APIBaseURL string   `toml:"api_base_url"`
	Timeout    Duration `toml:"timeout"`
}

type MCPConfig struct {
	// Transport is "stdio" or "sse".
	Transport string `toml:"transport"`
	Address   string `toml:"address"`
}

type GRPCConfig struct {
	Address string `toml:"address"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// RankingConfig carries the contact ranking heuristics. The point values are
// tunable; Validate keeps the tiers in order.
type RankingConfig struct {
	ExactScore               float64 `toml:"exact_score"`
	PrefixBase               float64 `toml:"prefix_base"`
	PrefixLengthPenalty      float64 `toml:"prefix_length_penalty"`
	SubstringBase            float64 `toml:"substring_base"`
	SubstringPositionPenalty float64 `toml:"substring_position_penalty"`
	SubstringLengthPenalty   float64 `toml:"substring_length_penalty"`
	ScoreFloor               float64 `toml:"score_floor"`
	FuzzyFloor               float64 `toml:"fuzzy_floor"`
	FuzzyMinQueryLength      int     `toml:"fuzzy_min_query_length"`
	PhoneDigitScore          float64 `toml:"phone_digit_score"`
	PhoneMinDigits           int     `toml:"phone_min_digits"`
	DefaultLimit             int     `toml:"default_limit"`
	FuzzyScorer              string  `toml:"fuzzy_scorer"`
	SmartScorer              string  `toml:"smart_scorer"`
	SmartThreshold           float64 `toml:"smart_threshold"`
}

type QueryConfig struct {
	RowCeiling           int `toml:"row_ceiling"`
	ContextExpansionCap  int `toml:"context_expansion_cap"`
	DefaultListLimit     int `toml:"default_list_limit"`
	DefaultMaxResults    int `toml:"default_max_results"`
	ListContextBefore    int `toml:"list_context_before"`
	ListContextAfter     int `toml:"list_context_after"`
	PivotContextBefore   int `toml:"pivot_context_before"`
	PivotContextAfter    int `toml:"pivot_context_after"`
	DefaultChatListLimit int `toml:"default_chat_list_limit"`
}

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultPath is ~/.whatsapp-mcp/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".whatsapp-mcp", "config.toml")
}

func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	storeDir := filepath.Join(homeDir, ".whatsapp-bridge", "store")

	return &Config{
		Store: StoreConfig{
			MessagesPath:  filepath.Join(storeDir, "messages.db"),
			DirectoryPath: filepath.Join(storeDir, "whatsapp.db"),
			BusyTimeout:   Duration{5 * time.Second},
		},
		Bridge: BridgeConfig{
			APIBaseURL: "http://localhost:8080/api",
			Timeout:    Duration{30 * time.Second},
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Address:   "127.0.0.1:8081",
		},
		GRPC: GRPCConfig{
			Address: "127.0.0.1:50052",
		},
		Log: LogConfig{
			Level: "info",
		},
		Ranking: RankingConfig{
			ExactScore:               100,
			PrefixBase:               90,
			PrefixLengthPenalty:      2,
			SubstringBase:            85,
			SubstringPositionPenalty: 2,
			SubstringLengthPenalty:   1,
			ScoreFloor:               60,
			FuzzyFloor:               70,
			FuzzyMinQueryLength:      2,
			PhoneDigitScore:          50,
			PhoneMinDigits:           3,
			DefaultLimit:             25,
			FuzzyScorer:              string(textmatch.ScorerLevenshtein),
			SmartScorer:              string(textmatch.ScorerTokenSort),
			SmartThreshold:           0.6,
		},
		Query: QueryConfig{
			RowCeiling:           50,
			ContextExpansionCap:  5,
			DefaultListLimit:     20,
			DefaultMaxResults:    100,
			ListContextBefore:    1,
			ListContextAfter:     1,
			PivotContextBefore:   5,
			PivotContextAfter:    5,
			DefaultChatListLimit: 20,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// process environment, in that order. A missing file is only an error when
// the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getEnv("WA_MCP_CONFIG", DefaultPath())
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if dir := os.Getenv("WA_STORE_DIR"); dir != "" {
		c.Store.MessagesPath = filepath.Join(dir, getEnv("MESSAGES_DB_NAME", "messages.db"))
		c.Store.DirectoryPath = filepath.Join(dir, "whatsapp.db")
	}
	c.Store.MessagesPath = getEnv("WA_MESSAGES_DB", c.Store.MessagesPath)
	c.Store.DirectoryPath = getEnv("WA_DIRECTORY_DB", c.Store.DirectoryPath)

	if host, port := os.Getenv("WHATSAPP_API_HOST"), os.Getenv("WHATSAPP_API_PORT"); host != "" || port != "" {
		c.Bridge.APIBaseURL = fmt.Sprintf("http://%s:%s/api", getEnv("WHATSAPP_API_HOST", "localhost"), getEnv("WHATSAPP_API_PORT", "8080"))
	}
	c.Bridge.APIBaseURL = getEnv("WHATSAPP_API_BASE_URL", c.Bridge.APIBaseURL)

	c.MCP.Transport = getEnv("WA_MCP_TRANSPORT", c.MCP.Transport)
	c.MCP.Address = getEnv("WA_MCP_ADDRESS", c.MCP.Address)
	c.GRPC.Address = getEnv("WA_GRPC_ADDRESS", c.GRPC.Address)
	c.Log.Level = getEnv("WA_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("WA_SMART_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("WA_SMART_THRESHOLD: %q is not a number", v)
		}
		c.Ranking.SmartThreshold = f
	}
	return nil
}

// Validate rejects settings that would break the tier ordering
// exact > prefix > substring > fuzzy > phone digits.
func (c *Config) Validate() error {
	r := c.Ranking
	if !(r.ExactScore > r.PrefixBase && r.PrefixBase > r.SubstringBase) {
		return fmt.Errorf("ranking: need exact_score > prefix_base > substring_base")
	}
	if r.FuzzyFloor <= 0 || r.FuzzyFloor > 100 {
		return fmt.Errorf("ranking: fuzzy_floor must be in (0, 100]")
	}
	if r.SubstringBase <= r.FuzzyFloor {
		return fmt.Errorf("ranking: substring_base must exceed fuzzy_floor")
	}
	if r.PhoneDigitScore >= r.FuzzyFloor || r.PhoneDigitScore >= r.ScoreFloor {
		return fmt.Errorf("ranking: phone_digit_score must be below fuzzy_floor and score_floor")
	}
	if r.PrefixLengthPenalty < 0 || r.SubstringPositionPenalty < 0 || r.SubstringLengthPenalty < 0 {
		return fmt.Errorf("ranking: penalties must not be negative")
	}
	if r.DefaultLimit <= 0 {
		return fmt.Errorf("ranking: default_limit must be positive")
	}
	if r.SmartThreshold < 0 || r.SmartThreshold > 1 {
		return fmt.Errorf("ranking: smart_threshold must be in [0, 1]")
	}
	for _, kind := range []string{r.FuzzyScorer, r.SmartScorer} {
		if _, err := textmatch.ScorerFor(textmatch.ScorerKind(kind)); err != nil {
			return fmt.Errorf("ranking: %w", err)
		}
	}

	q := c.Query
	if q.RowCeiling <= 0 || q.ContextExpansionCap < 0 {
		return fmt.Errorf("query: row_ceiling must be positive and context_expansion_cap not negative")
	}
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"default_list_limit", q.DefaultListLimit},
		{"default_max_results", q.DefaultMaxResults},
		{"default_chat_list_limit", q.DefaultChatListLimit},
	} {
		if limit.value <= 0 {
			return fmt.Errorf("query: %s must be positive, got %d", limit.name, limit.value)
		}
	}
	if q.ListContextBefore < 0 || q.ListContextAfter < 0 || q.PivotContextBefore < 0 || q.PivotContextAfter < 0 {
		return fmt.Errorf("query: context window sizes must not be negative")
	}
	if c.MCP.Transport != "stdio" && c.MCP.Transport != "sse" {
		return fmt.Errorf("mcp: unknown transport %q", c.MCP.Transport)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
