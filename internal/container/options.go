package container

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Storage backends accepted by --storage.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Options are read by humacli from flags and SERVICE_* variables. The
// unprefixed PORT, DATABASE_URL and REDIS_ADDR variables win over both.
type Options struct {
	Port            int    `default:"3000"    env:"PORT"         help:"Port to listen on"                                   short:"p" validate:"min=1,max=65535"`
	Storage         string `default:"memory"  help:"Record storage backend: memory, postgres or redis"                   short:"s" validate:"oneof=memory postgres redis"`
	DatabaseURL     string `default:""        env:"DATABASE_URL" help:"PostgreSQL connection string"                                validate:"required_if=Storage postgres"`
	RedisAddr       string `default:""        env:"REDIS_ADDR"   help:"Redis address for the cache, redis storage and events" short:"r" validate:"required_if=Storage redis"`
	CacheTTL        int    `default:"3600"    help:"Record cache TTL in seconds"                                                    validate:"min=0"`
	CodeDigits      int    `default:"6"       help:"Width of the decimal short code space"                               short:"c" validate:"min=2,max=18"`
	MaxAttempts     int    `default:"10"      help:"Candidate codes tried before giving up"                                          validate:"min=1,max=1000"`
	ResolveTimeout  int    `default:"3000"    help:"Hostname resolution timeout in milliseconds"                                     validate:"min=1"`
	ResolveCacheTTL int    `default:"300"     help:"Seconds a resolvable hostname is remembered, 0 disables"                         validate:"min=0"`
	LogFormat       string `default:"console" help:"Log output format: console or json"                                              validate:"oneof=console json"`
	LogLevel        string `default:"info"    help:"Minimum log level: debug, info, warn or error"                                   validate:"oneof=debug info warn error"`
}

// Prepare applies the platform environment overrides and validates the result.
func Prepare(options *Options) error {
	if err := env.Parse(options); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(options); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	return nil
}

// CacheEnabled reports whether PostgreSQL reads go through the Redis cache.
func (o *Options) CacheEnabled() bool {
	return o.Storage == StoragePostgres && o.RedisAddr != ""
}

func (o *Options) cacheTTL() time.Duration {
	return time.Duration(o.CacheTTL) * time.Second
}

func (o *Options) resolveTimeout() time.Duration {
	return time.Duration(o.ResolveTimeout) * time.Millisecond
}

func (o *Options) resolveCacheTTL() time.Duration {
	return time.Duration(o.ResolveCacheTTL) * time.Second
}
