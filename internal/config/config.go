package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config stores service settings.
type Config struct {
	Port      int
	Store     Store
	DB        DB
	Tracking  Tracking
	Kafka     Kafka
	RateLimit RateLimit
	Pprof     Pprof
}

// Store selects where orders live.
type Store struct {
	Backend    string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// DB stores postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		d.User, d.Pass, net.JoinHostPort(d.Host, d.Port), d.Name)
}

// Tracking tunes the delivery simulator.
type Tracking struct {
	TickInterval           time.Duration
	StoreLat               float64
	StoreLng               float64
	DefaultPromisedMinutes int
	DestinationJitterKm    float64
	OperationTimeout       time.Duration
}

// Kafka configures the rider location consumer. Empty Brokers disables it.
type Kafka struct {
	Brokers        []string
	GroupID        string
	LocationsTopic string
}

// Enabled reports whether the consumer should run.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// RateLimit configures the per-order limiter on location pushes.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof configures the debug listener.
type Pprof struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Load reads configuration in order: .env (if present), environment, flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "order store: memory|sqlite|postgres|mongo")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	e := envReader{}
	cfg := &Config{
		Port: e.int("PORT", defaultPort),
		Store: Store{
			Backend:    strings.ToLower(e.str("STORE_BACKEND", defaultStore.Backend)),
			SQLitePath: e.str("SQLITE_PATH", defaultStore.SQLitePath),
			MongoURI:   e.str("MONGO_URI", defaultStore.MongoURI),
			MongoDB:    e.str("MONGO_DB", defaultStore.MongoDB),
		},
		DB: DB{
			Host: e.str("POSTGRES_HOST", defaultDB.Host),
			Port: e.str("POSTGRES_PORT", defaultDB.Port),
			User: e.str("POSTGRES_USER", defaultDB.User),
			Pass: e.str("POSTGRES_PASSWORD", defaultDB.Pass),
			Name: e.str("POSTGRES_DB", defaultDB.Name),
		},
		Tracking: Tracking{
			TickInterval:           e.duration("TRACKING_TICK_INTERVAL", defaultTracking.TickInterval),
			StoreLat:               e.float("TRACKING_STORE_LAT", defaultTracking.StoreLat),
			StoreLng:               e.float("TRACKING_STORE_LNG", defaultTracking.StoreLng),
			DefaultPromisedMinutes: e.int("TRACKING_PROMISED_MINUTES", defaultTracking.DefaultPromisedMinutes),
			DestinationJitterKm:    e.float("TRACKING_DESTINATION_JITTER_KM", defaultTracking.DestinationJitterKm),
			OperationTimeout:       e.duration("TRACKING_OPERATION_TIMEOUT", defaultTracking.OperationTimeout),
		},
		Kafka: Kafka{
			Brokers:        e.list("KAFKA_BROKERS"),
			GroupID:        e.str("KAFKA_GROUP_ID", defaultKafka.GroupID),
			LocationsTopic: e.str("KAFKA_LOCATIONS_TOPIC", defaultKafka.LocationsTopic),
		},
		RateLimit: RateLimit{
			Enabled:    e.bool("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
			Rate:       e.float("RATE_LIMIT_RATE", defaultRateLimit.Rate),
			Burst:      e.int("RATE_LIMIT_BURST", defaultRateLimit.Burst),
			TTL:        e.duration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
			MaxBuckets: e.int("RATE_LIMIT_MAX_BUCKETS", defaultRateLimit.MaxBuckets),
		},
		Pprof: Pprof{
			Enabled: e.bool("PPROF_ENABLED", defaultPprof.Enabled),
			Addr:    e.str("PPROF_ADDR", defaultPprof.Addr),
			User:    e.str("PPROF_USER", ""),
			Pass:    e.str("PPROF_PASSWORD", ""),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendPostgres {
		if _, err := strconv.Atoi(c.DB.Port); err != nil {
			return fmt.Errorf("invalid POSTGRES_PORT %q: %w", c.DB.Port, err)
		}
	}
	if c.Tracking.TickInterval <= 0 {
		return fmt.Errorf("invalid tracking tick interval: %s", c.Tracking.TickInterval)
	}
	if c.Tracking.DefaultPromisedMinutes <= 0 || c.Tracking.DefaultPromisedMinutes > 240 {
		return fmt.Errorf("invalid promised minutes: %d", c.Tracking.DefaultPromisedMinutes)
	}
	if c.Tracking.StoreLat < -90 || c.Tracking.StoreLat > 90 || c.Tracking.StoreLng < -180 || c.Tracking.StoreLng > 180 {
		return fmt.Errorf("invalid store location: %v,%v", c.Tracking.StoreLat, c.Tracking.StoreLng)
	}
	return nil
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return f
}

func (e *envReader) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return d
}

func (e *envReader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
