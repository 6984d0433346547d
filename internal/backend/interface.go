package backend

import (
	"context"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/services"
	"spendtrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the assembled service and the resources behind it
type BackendResult struct {
	Service    *services.TransactionService
	Repository *store.Repository
	// Publisher is nil when AMQP is not configured or unreachable at startup.
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens storage and wires the transaction service on top of it
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Parsing and classification
	ParserBackend     ParserType
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeout        time.Duration
	CategoryRulesFile string
	ReceiptCacheSize  int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ParserType selects the transcript parsing strategy
type ParserType string

const (
	RulesParser ParserType = "rules"
	LLMParser   ParserType = "llm"
)

// IsValid returns true if the parser type is valid
func (pt ParserType) IsValid() bool {
	return pt == RulesParser || pt == LLMParser
}
