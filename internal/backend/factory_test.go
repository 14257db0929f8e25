package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dompet/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/tmp/x.db",
		DataDir:           "/srv/data",
		AMQPURL:           "amqp://localhost/",
		AMQPExchange:      "dompet",
		AMQPInboundQueue:  "in",
		AMQPOutboundQueue: "out",
		AMQPLedgerQueue:   "ledger",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.DataDirectory != "/srv/data" || got.AMQPQueues.Outbound != "out" {
		t.Errorf("unexpected config: %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory seeds from data directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "seed_users.txt"), []byte("628111,Budi\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Close()
		if _, err := res.Store.FindUserByPhone(ctx, "628111"); err != nil {
			t.Errorf("seeded user missing: %v", err)
		}
		if res.AMQP != nil {
			t.Error("no broker configured")
		}
		if res.Publisher() != nil || res.Sender() != nil {
			t.Error("publisher and sender must be untyped nil without a broker")
		}
		if err := res.Ready(ctx); err != nil {
			t.Errorf("Ready: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "d.db")})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if err := res.Ready(ctx); err != nil {
			t.Errorf("Ready: %v", err)
		}
		if err := res.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
			t.Error("expected error")
		}
		if _, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Error("expected error for missing path")
		}
	})
}
