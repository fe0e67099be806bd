package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/catalog/catalogtest"
	"github.com/harshag68/AgentDevelopment/internal/catalog/postgres"
)

// TestContract runs against a real server when MANUEL_TEST_POSTGRES_DSN is
// set. Tables are truncated before every subtest.
func TestContract(t *testing.T) {
	dsn := os.Getenv("MANUEL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MANUEL_TEST_POSTGRES_DSN not set")
	}
	catalogtest.Run(t, func(t *testing.T) catalog.Catalog {
		ctx := context.Background()
		s, err := postgres.New(ctx, dsn)
		if err != nil {
			t.Fatalf("postgres.New: %v", err)
		}
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		if _, err := db.ExecContext(ctx, "TRUNCATE manuals, manual_steps, manual_files"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}

func TestNew_RequiresDSN(t *testing.T) {
	if _, err := postgres.New(context.Background(), ""); err == nil {
		t.Error("empty dsn should fail")
	}
}
