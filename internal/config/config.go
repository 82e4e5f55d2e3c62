package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lzhlsy00/video-gen/internal/statuslog"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Supabase  SupabaseConfig
	Store     StoreConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	R2        R2Config
	Poll      PollConfig
	Status    StatusConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	LogLevel      string
	DefaultLocale string

	// MaxUploadFiles bounds how many files one upload request may carry.
	MaxUploadFiles int
}

// BackendConfig points at the generation backend. BaseURL has no trailing
// /generate; the client appends route paths itself.
type BackendConfig struct {
	BaseURL         string
	GenerateTimeout time.Duration
	ListTimeout     time.Duration
	HealthTimeout   time.Duration
	UploadTimeout   time.Duration
}

type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	UseJWKS        bool
}

// StoreConfig selects where status rows are read from: "rest" (hosted
// PostgREST), "postgres" (direct connection) or "sqlite" (local file).
type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	Timeout     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	GeneratePerHour int
	UploadPerHour   int
	StatusPerMin    int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type PollConfig struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	MaxWatch       time.Duration
}

type StatusConfig struct {
	DetectErrorsUnfiltered bool
	Rules                  statuslog.Rules
	Markers                statuslog.Markers
	TerminalCacheTTL       time.Duration
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Local .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("SUPABASE_ANON_KEY")
	readSecret("SUPABASE_SERVICE_ROLE_KEY")
	readSecret("SUPABASE_JWT_SECRET")
	readSecret("DATABASE_URL")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV", "NODE_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.default_locale", "DEFAULT_LOCALE")
	_ = v.BindEnv("server.max_upload_files", "UPLOAD_MAX_FILES")
	_ = v.BindEnv("backend.base_url", "BACKEND_BASE_URL")
	_ = v.BindEnv("backend.generate_endpoint", "VIDEO_GENERATION_ENDPOINT")
	_ = v.BindEnv("backend.ngrok_url", "NGROK_URL")
	_ = v.BindEnv("backend.generate_timeout", "BACKEND_GENERATE_TIMEOUT")
	_ = v.BindEnv("backend.list_timeout", "BACKEND_LIST_TIMEOUT")
	_ = v.BindEnv("backend.health_timeout", "BACKEND_HEALTH_TIMEOUT")
	_ = v.BindEnv("backend.upload_timeout", "BACKEND_UPLOAD_TIMEOUT")
	_ = v.BindEnv("supabase.url", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	_ = v.BindEnv("supabase.anon_key", "SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY")
	_ = v.BindEnv("supabase.service_role_key", "SUPABASE_SERVICE_ROLE_KEY")
	_ = v.BindEnv("supabase.jwt_secret", "SUPABASE_JWT_SECRET")
	_ = v.BindEnv("supabase.use_jwks", "SUPABASE_USE_JWKS")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.database_url", "DATABASE_URL")
	_ = v.BindEnv("store.sqlite_path", "SQLITE_PATH")
	_ = v.BindEnv("store.timeout", "STORE_TIMEOUT")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("poll.interval", "POLL_INTERVAL")
	_ = v.BindEnv("poll.request_timeout", "POLL_REQUEST_TIMEOUT")
	_ = v.BindEnv("poll.max_watch", "POLL_MAX_WATCH")
	_ = v.BindEnv("status.detect_errors_unfiltered", "STATUS_DETECT_ERRORS_UNFILTERED")
	_ = v.BindEnv("status.terminal_cache_ttl", "STATUS_TERMINAL_CACHE_TTL")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	setDefaults(v)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.default_locale", "en")
	v.SetDefault("server.max_upload_files", 10)

	// Backend defaults
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.generate_timeout", 30*time.Second)
	v.SetDefault("backend.list_timeout", 30*time.Second)
	v.SetDefault("backend.health_timeout", 15*time.Second)
	v.SetDefault("backend.upload_timeout", 60*time.Second)

	v.SetDefault("supabase.use_jwks", false)

	v.SetDefault("store.driver", "rest")
	v.SetDefault("store.sqlite_path", "./data/status.db")
	v.SetDefault("store.timeout", 15*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.generate_per_hour", 20)
	v.SetDefault("ratelimit.upload_per_hour", 50)
	v.SetDefault("ratelimit.status_per_min", 120)

	// Poll defaults
	v.SetDefault("poll.interval", 2*time.Second)
	v.SetDefault("poll.request_timeout", 15*time.Second)
	v.SetDefault("poll.max_watch", 30*time.Minute)

	v.SetDefault("status.detect_errors_unfiltered", false)
	v.SetDefault("status.terminal_cache_ttl", 24*time.Hour)

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var rules statuslog.Rules
	if err := v.UnmarshalKey("status.rules", &rules); err != nil {
		return nil, err
	}
	var markers statuslog.Markers
	if err := v.UnmarshalKey("status.markers", &markers); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			Env:            v.GetString("server.env"),
			LogLevel:       v.GetString("server.log_level"),
			DefaultLocale:  v.GetString("server.default_locale"),
			MaxUploadFiles: v.GetInt("server.max_upload_files"),
		},
		Backend: BackendConfig{
			BaseURL:         resolveBackendBaseURL(v),
			GenerateTimeout: v.GetDuration("backend.generate_timeout"),
			ListTimeout:     v.GetDuration("backend.list_timeout"),
			HealthTimeout:   v.GetDuration("backend.health_timeout"),
			UploadTimeout:   v.GetDuration("backend.upload_timeout"),
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimRight(v.GetString("supabase.url"), "/"),
			AnonKey:        v.GetString("supabase.anon_key"),
			ServiceRoleKey: v.GetString("supabase.service_role_key"),
			JWTSecret:      v.GetString("supabase.jwt_secret"),
			UseJWKS:        v.GetBool("supabase.use_jwks"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("store.driver")),
			DatabaseURL: v.GetString("store.database_url"),
			SQLitePath:  v.GetString("store.sqlite_path"),
			Timeout:     v.GetDuration("store.timeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: v.GetInt("ratelimit.generate_per_hour"),
			UploadPerHour:   v.GetInt("ratelimit.upload_per_hour"),
			StatusPerMin:    v.GetInt("ratelimit.status_per_min"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Poll: PollConfig{
			Interval:       v.GetDuration("poll.interval"),
			RequestTimeout: v.GetDuration("poll.request_timeout"),
			MaxWatch:       v.GetDuration("poll.max_watch"),
		},
		Status: StatusConfig{
			DetectErrorsUnfiltered: v.GetBool("status.detect_errors_unfiltered"),
			Rules:                  rules,
			Markers:                markers,
			TerminalCacheTTL:       v.GetDuration("status.terminal_cache_ttl"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}

// resolveBackendBaseURL honors an explicit base URL first, then a full
// generate endpoint, then the tunnel URL used in production, then localhost.
func resolveBackendBaseURL(v *viper.Viper) string {
	if base := v.GetString("backend.base_url"); base != "" {
		return strings.TrimRight(base, "/")
	}
	if endpoint := v.GetString("backend.generate_endpoint"); endpoint != "" {
		return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/generate")
	}
	if strings.EqualFold(v.GetString("server.env"), "production") {
		if tunnel := v.GetString("backend.ngrok_url"); tunnel != "" {
			return strings.TrimRight(tunnel, "/")
		}
	}
	return "http://localhost:8000"
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Env, "development")
}
