// Package config loads the OME's runtime configuration (spec.md §6's
// "Configuration (environment variables or flags)"). Grounded on
// DimaJoyti's internal/config/config.go shape (a typed Config struct built
// from getEnv-with-default helpers over os.Getenv) plus joho/godotenv for
// local ".env" loading before those reads — godotenv appears across the
// retrieval pack's manifests (PxPatel-Distributed-Matching-Engine among
// others) as the standard way a Go service picks up a local .env file
// without requiring it to already be exported into the process
// environment.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is every knob spec.md §6 names, plus the ambient HTTP/sink timeouts
// SPEC_FULL.md §4.7 adds.
type Config struct {
	KnownMarketsURL string
	ExternalBookURL string
	ExecutionerAddr string
	Port            int
	Address         string
	Dumpfile        string
	ForceNoTLS      bool
	LogLevel        string

	SinkQueueSize        int
	SinkRequestTimeout   time.Duration
	SinkMaxElapsedRetry  time.Duration
	DiscoveryHTTPTimeout time.Duration
}

// Load reads a local .env file if present (silently ignored if absent —
// production deployments inject real environment variables instead), then
// builds a Config from environment variables with flag overrides, in that
// precedence order: flags win over env vars, env vars win over defaults.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	fs := flag.NewFlagSet("ome", flag.ContinueOnError)
	knownMarketsURL := fs.String("known-markets-url", getEnvString("KNOWN_MARKETS_URL", ""), "URL returning the list of known markets")
	externalBookURL := fs.String("external-book-url", getEnvString("EXTERNAL_BOOK_URL", ""), "base URL for fetching a market's external resting orders")
	executionerAddr := fs.String("executioner-address", getEnvString("EXECUTIONER_ADDRESS", "http://localhost:9100"), "base URL of the Executioner")
	port := fs.Int("port", getEnvInt("PORT", 8080), "port the control plane listens on")
	address := fs.String("address", getEnvString("ADDRESS", "0.0.0.0"), "address the control plane binds to")
	dumpfile := fs.String("dumpfile", getEnvString("DUMPFILE", ""), "accepted for compatibility; no book state is written on shutdown")
	forceNoTLS := fs.Bool("force-no-tls", getEnvBool("FORCE_NO_TLS", true), "accepted for compatibility; the control plane always serves plain HTTP")
	logLevel := fs.String("log-level", getEnvString("RUST_LOG", "info"), "log level")
	sinkQueueSize := fs.Int("sink-queue-size", getEnvInt("EXECUTION_SINK_QUEUE_SIZE", 1024), "execution sink queue size")
	sinkTimeout := fs.Duration("sink-timeout", getEnvDuration("EXECUTION_HTTP_TIMEOUT", 5*time.Second), "per-request timeout for Executioner POSTs")
	sinkMaxElapsed := fs.Duration("sink-max-elapsed", getEnvDuration("EXECUTION_BACKOFF_MAX_ELAPSED", 30*time.Second), "max total retry time per batch before dropping it")
	discoveryTimeout := fs.Duration("discovery-timeout", getEnvDuration("DISCOVERY_HTTP_TIMEOUT", 10*time.Second), "per-request timeout for discovery fetches")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		KnownMarketsURL:      *knownMarketsURL,
		ExternalBookURL:      *externalBookURL,
		ExecutionerAddr:      *executionerAddr,
		Port:                 *port,
		Address:              *address,
		Dumpfile:             *dumpfile,
		ForceNoTLS:           *forceNoTLS,
		LogLevel:             *logLevel,
		SinkQueueSize:        *sinkQueueSize,
		SinkRequestTimeout:   *sinkTimeout,
		SinkMaxElapsedRetry:  *sinkMaxElapsed,
		DiscoveryHTTPTimeout: *discoveryTimeout,
	}, nil
}

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer env var, using default")
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid boolean env var, using default")
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration env var, using default")
		return def
	}
	return d
}
