//go:build integration
// +build integration

package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"schemad/internal/db"
)

// These tests need a live PostgreSQL instance:
//
//	SCHEMAD_TEST_DATABASE_URL=postgres://... go test -tags=integration ./internal/schema/
func testClient(t *testing.T) *db.Client {
	t.Helper()

	url := os.Getenv("SCHEMAD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SCHEMAD_TEST_DATABASE_URL not set")
	}

	client, err := db.NewClient(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// scratchTable creates a throwaway table with a primary key and drops it when
// the test finishes.
func scratchTable(t *testing.T, client *db.Client) string {
	t.Helper()

	name := fmt.Sprintf("schemad_it_%d", time.Now().UnixNano())
	ctx := context.Background()

	ddl := fmt.Sprintf(`CREATE TABLE %s (id BIGINT PRIMARY KEY, note TEXT)`, name)
	if _, err := client.Pool().Exec(ctx, ddl); err != nil {
		t.Fatalf("failed to create scratch table: %v", err)
	}
	t.Cleanup(func() {
		_, _ = client.Pool().Exec(context.Background(), fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name))
	})
	return name
}

func TestValidatorAgainstLiveCatalog(t *testing.T) {
	client := testClient(t)
	table := scratchTable(t, client)
	v := NewValidator(client.Pool(), "public")
	ctx := context.Background()

	exists, err := v.TableExists(ctx, table)
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if !exists {
		t.Errorf("expected table %s to exist", table)
	}

	exists, err = v.TableExists(ctx, "schemad_it_never_created")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if exists {
		t.Error("expected missing table to not exist")
	}

	colExists, err := v.ColumnExists(ctx, table, "note")
	if err != nil {
		t.Fatalf("ColumnExists: %v", err)
	}
	if !colExists {
		t.Error("expected note column to exist")
	}

	critical, err := v.IsCriticalColumn(ctx, table, "id")
	if err != nil {
		t.Fatalf("IsCriticalColumn: %v", err)
	}
	if !critical {
		t.Error("expected primary key column to be critical")
	}

	critical, err = v.IsCriticalColumn(ctx, table, "note")
	if err != nil {
		t.Fatalf("IsCriticalColumn: %v", err)
	}
	if critical {
		t.Error("expected plain column to not be critical")
	}

	count, err := v.ColumnCount(ctx, table)
	if err != nil {
		t.Fatalf("ColumnCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 columns, got %d", count)
	}

	hasPK, err := v.HasPrimaryKey(ctx, table)
	if err != nil {
		t.Fatalf("HasPrimaryKey: %v", err)
	}
	if !hasPK {
		t.Error("expected table to have a primary key")
	}

	cols, err := v.TableColumns(ctx, table)
	if err != nil {
		t.Fatalf("TableColumns: %v", err)
	}
	if len(cols) != 2 || cols[0].Name != "id" || cols[1].Name != "note" {
		t.Errorf("unexpected columns in ordinal order: %+v", cols)
	}

	for _, dtype := range []string{"integer", "varchar", "text", "boolean", "timestamp", "decimal"} {
		ok, err := v.ValidateDataType(ctx, dtype)
		if err != nil {
			t.Fatalf("ValidateDataType(%s): %v", dtype, err)
		}
		if !ok {
			t.Errorf("expected %s to be a valid type", dtype)
		}
	}
	ok, err := v.ValidateDataType(ctx, "no_such_type")
	if err != nil {
		t.Fatalf("ValidateDataType: %v", err)
	}
	if ok {
		t.Error("expected unknown type to be invalid")
	}
}

func TestServiceRoundTripAgainstLiveDatabase(t *testing.T) {
	client := testClient(t)
	table := scratchTable(t, client)
	v := NewValidator(client.Pool(), "public")
	svc := NewService(v, client.Pool(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// Add a column, see it in the catalog, drop it, see it gone.
	col := ColumnDefinition{Name: "qty", Type: TypeInteger, Nullable: true}
	if _, err := svc.AddColumn(ctx, table, col); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	exists, err := v.ColumnExists(ctx, table, "qty")
	if err != nil {
		t.Fatalf("ColumnExists: %v", err)
	}
	if !exists {
		t.Fatal("expected qty column after AddColumn")
	}

	if _, err := svc.DropColumn(ctx, table, "qty"); err != nil {
		t.Fatalf("DropColumn: %v", err)
	}

	exists, err = v.ColumnExists(ctx, table, "qty")
	if err != nil {
		t.Fatalf("ColumnExists: %v", err)
	}
	if exists {
		t.Fatal("expected qty column gone after DropColumn")
	}

	// Dropping the primary key must fail and leave the column in place.
	if _, err := svc.DropColumn(ctx, table, "id"); err == nil {
		t.Fatal("expected CriticalColumnError dropping primary key")
	}
	exists, err = v.ColumnExists(ctx, table, "id")
	if err != nil {
		t.Fatalf("ColumnExists: %v", err)
	}
	if !exists {
		t.Fatal("primary key column must survive a refused drop")
	}
}
