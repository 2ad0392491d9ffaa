package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "MENTORHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	LocalStore    LocalStoreConfig
	RemoteDB      RemoteDBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Eventing      EventingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MENTORHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"MENTORHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MENTORHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MENTORHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// LocalStoreConfig points at the embedded SQLite database backing the
// device-local collections.
type LocalStoreConfig struct {
	Path string `envconfig:"MENTORHUB_LOCAL_STORE_PATH" default:"mentorhub.db"`
}

// RemoteDBConfig describes the remote document store. The DSN is optional:
// when it is empty the whole system runs in local-only mode and no remote
// accessor is ever constructed.
type RemoteDBConfig struct {
	DSN string `envconfig:"MENTORHUB_REMOTE_DB_DSN"`

	MaxOpenConns    int           `envconfig:"MENTORHUB_REMOTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MENTORHUB_REMOTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MENTORHUB_REMOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MENTORHUB_REMOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Enabled reports whether the remote document store is configured. This is
// the single capability check; composition roots consult it once and wire
// either remote-backed or disabled mirrors.
func (r RemoteDBConfig) Enabled() bool {
	return strings.TrimSpace(r.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"MENTORHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MENTORHUB_REDIS_ADDR"`
	Password     string        `envconfig:"MENTORHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MENTORHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MENTORHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MENTORHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MENTORHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MENTORHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MENTORHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MENTORHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MENTORHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MENTORHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MENTORHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MENTORHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MENTORHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MENTORHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MENTORHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MENTORHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MENTORHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MENTORHUB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MENTORHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MENTORHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MENTORHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	InviteTopic        string `envconfig:"MENTORHUB_PUBSUB_INVITE_TOPIC" default:"mh-invite-events"`
	InviteSubscription string `envconfig:"MENTORHUB_PUBSUB_INVITE_SUBSCRIPTION"`
}

type EventingConfig struct {
	InboxIdempotencyTTL time.Duration `envconfig:"MENTORHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}
