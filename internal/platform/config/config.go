package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "petledger/pkg/platform/strings"
)

// Server captures process-level configuration. FromEnv keeps main lean; every
// knob except REGISTRY_CONTRACT_ADDRESS has a development default. The
// registry address is deployment-specific, so it must be set explicitly and
// the process refuses to start without it.
type Server struct {
	Addr          string
	JWTSigningKey string

	Redis  RedisConfig
	Ledger LedgerConfig
	Oracle OracleConfig
	Kafka  KafkaConfig

	// PostgresURL locates the audit outbox database. Empty keeps the audit
	// trail in memory, for development only.
	PostgresURL string

	// TransferTTL bounds how long a terminal transfer record is retained
	// before the store reaps it.
	TransferTTL time.Duration

	// ConfirmationTimeout bounds how long accept waits for the controller
	// change transaction to be mined.
	ConfirmationTimeout time.Duration
}

// RedisConfig configures the transfer store and event broadcaster connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LedgerConfig locates the chain node and the registry contract.
type LedgerConfig struct {
	RPCURL          string
	RegistryAddress string
	PollInterval    time.Duration
}

// OracleConfig locates the biometric comparison service.
type OracleConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KafkaConfig configures the audit event pipeline.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("PETLEDGER_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Ledger: LedgerConfig{
			RPCURL:          envOr("LEDGER_RPC_URL", "http://localhost:8545"),
			RegistryAddress: os.Getenv("REGISTRY_CONTRACT_ADDRESS"),
			PollInterval:    envDuration("LEDGER_POLL_INTERVAL", 2*time.Second),
		},
		Oracle: OracleConfig{
			BaseURL: envOr("BIOMETRIC_ORACLE_URL", "http://localhost:9090"),
			Timeout: envDuration("BIOMETRIC_ORACLE_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: pkgstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")),
			Topic:   envOr("AUDIT_TOPIC", "petledger.audit"),
		},
		PostgresURL:         os.Getenv("AUDIT_DATABASE_URL"),
		TransferTTL:         envDuration("TRANSFER_TTL", 30*24*time.Hour),
		ConfirmationTimeout: envDuration("CONFIRMATION_TIMEOUT", 90*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
