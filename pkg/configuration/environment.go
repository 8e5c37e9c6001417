package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load([]string{".env", ".env.local"})
	if err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist and returns how many were loaded.
// Relative names missing from the working directory are looked up in the
// nearest ancestor directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	root := moduleRoot()
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existing = append(existing, file)
			continue
		}
		if root == "" || filepath.IsAbs(file) {
			continue
		}
		if candidate := filepath.Join(root, file); fileExists(candidate) {
			existing = append(existing, candidate)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Name     string `env:"DB_NAME" envDefault:"taskgrid"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type CacheOptions struct {
	Backend  string        `env:"CACHE_BACKEND" envDefault:"memory"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"2m"`
	RedisURL string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

func (c *CacheOptions) Validate() error {
	switch c.Backend {
	case "memory", "redis", "disabled":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND=%q (expected memory|redis|disabled)", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.TTL)
	}
	if c.Backend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is 'redis'")
	}
	return nil
}

type ScoringOptions struct {
	CapacityThreshold int           `env:"SCORING_CAPACITY_THRESHOLD" envDefault:"5"`
	Scale             int32         `env:"SCORING_SCALE" envDefault:"10"`
	Async             bool          `env:"SCORING_ASYNC" envDefault:"true"`
	Timeout           time.Duration `env:"SCORING_TIMEOUT" envDefault:"10s"`
}

func (s *ScoringOptions) Validate() error {
	if s.CapacityThreshold < 1 {
		return fmt.Errorf("SCORING_CAPACITY_THRESHOLD must be at least 1, got %d", s.CapacityThreshold)
	}
	if s.Scale < 1 {
		return fmt.Errorf("SCORING_SCALE must be at least 1, got %d", s.Scale)
	}
	return nil
}

type AuthzOptions struct {
	ModelPath      string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath     string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
	FlagConfigPath string `env:"AUTHZ_FLAG_CONFIG" envDefault:"config/access/authz_flags.yaml"`
	Mode           string `env:"AUTHZ_MODE" envDefault:"enforce"`
}

type JWTOptions struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"taskgrid"`
}

type KafkaOptions struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"taskgrid.events"`
}

func (k *KafkaOptions) Enabled() bool {
	return len(k.Brokers) > 0
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Cache      CacheOptions
	Scoring    ScoringOptions
	Authz      AuthzOptions
	JWT        JWTOptions
	Kafka      KafkaOptions
	Prometheus PrometheusOptions

	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"postgres"`
	MigrationsAuto   bool          `env:"MIGRATIONS_AUTO" envDefault:"false"`
	InviteTTL        time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	ServerPort       int           `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string        `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string        `env:"-"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"text"`
	// Inbound request id header; a random uuid is generated when absent.
	RequestIDHeader    string   `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	ImpersonateHeader  string   `env:"IMPERSONATE_HEADER" envDefault:"X-Impersonate-User"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	logger *logrus.Logger
}

// Load reads env files and the process environment into a validated Configuration.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		return nil, err
	}
	return c, nil
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	return logging.ParseLevel(c.LogLevel)
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	c.logger = logging.NewLogger(os.Stdout, c.LogrusLogLevel(), c.LogFormat)
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND=%q (expected postgres|memory)", c.StorageBackend)
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache configuration error: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring configuration error: %w", err)
	}
	if c.GoAppEnvironment == Production && strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be positive, got %s", c.InviteTTL)
	}
	return nil
}
