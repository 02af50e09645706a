package config

import "time"

// Config is the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Session    SessionConfig    `yaml:"session"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

type ServerConfig struct {
	Port    string `yaml:"port"     env:"PORT"     env-default:"8080"`
	Env     string `yaml:"env"      env:"ENV"      env-default:"development"`
	GinMode string `yaml:"gin_mode" env:"GIN_MODE"`
}

// SessionConfig covers both the solo cookie sessions and team sessions.
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout"        env:"SESSION_TIMEOUT"  env-default:"2h"`
	CookieMaxAge  time.Duration `yaml:"cookie_max_age" env:"COOKIE_MAX_AGE"   env-default:"2h"`
	TeamTTL       time.Duration `yaml:"team_ttl"       env:"TEAM_SESSION_TTL" env-default:"12h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"   env-default:"5m"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"   env:"RATE_LIMIT_RPS"   env-default:"5"`
	Burst int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// SimilarityConfig points at a word-vector service. An empty URL leaves the
// Gemini scorer, if configured, as the only model.
type SimilarityConfig struct {
	URL     string        `yaml:"url"     env:"SIMILARITY_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SIMILARITY_TIMEOUT" env-default:"8s"`
	TopN    int           `yaml:"topn"    env:"SIMILARITY_TOPN"    env-default:"15"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Project string `yaml:"project" env:"GCP_PROJECT_ID"`
	Region  string `yaml:"region"  env:"GCP_REGION"    env-default:"europe-west1"`
	Model   string `yaml:"model"   env:"GEMINI_MODEL"  env-default:"gemini-2.5-flash"`
}

type CatalogConfig struct {
	Path string `yaml:"path" env:"CATALOG_PATH" env-default:"data/songs.json"`
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release" || c.Server.Env == "production"
}

// Enabled reports whether any Gemini credentials are present.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != "" || g.Project != ""
}
