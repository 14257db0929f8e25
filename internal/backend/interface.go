package backend

import (
	"context"

	"dompet/internal/amqp"
	"dompet/internal/router"
	"dompet/internal/services"
	"dompet/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional broker client and cleanup.
type BackendResult struct {
	Store store.Store
	// AMQP is nil when no broker is configured or it was unreachable.
	AMQP    *amqp.Client
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Publisher returns the broker as a ledger publisher, or nil without one.
func (r *BackendResult) Publisher() services.LedgerPublisher {
	if r == nil || r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Sender returns the broker as a reply sender, or nil without one.
func (r *BackendResult) Sender() router.Sender {
	if r == nil || r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	// Optional broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueues   amqp.Queues
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
