package schema

import (
	"context"
	"fmt"
	"strings"

	"schemad/internal/db"
)

// Validator answers existence, criticality, and type-validity questions
// against the live database catalog. All queries are read-only and each runs
// independently against current catalog state; no snapshot is taken across a
// validate-then-act sequence.
type Validator struct {
	q      db.Querier
	schema string
}

// NewValidator creates a validator scoped to the given schema (usually "public").
func NewValidator(q db.Querier, schemaName string) *Validator {
	return &Validator{
		q:      q,
		schema: schemaName,
	}
}

// TableExists checks whether a table exists in the scoped schema.
func (v *Validator) TableExists(ctx context.Context, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`

	var exists bool
	if err := v.q.QueryRow(ctx, query, v.schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

// ColumnExists checks whether a column exists on the given table.
func (v *Validator) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2 AND column_name = $3
		)
	`

	var exists bool
	if err := v.q.QueryRow(ctx, query, v.schema, table, column).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return exists, nil
}

// IsCriticalColumn reports whether the column participates in a PRIMARY KEY
// or FOREIGN KEY constraint on the table.
func (v *Validator) IsCriticalColumn(ctx context.Context, table, column string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.table_schema = $1
				AND tc.table_name = $2
				AND kcu.column_name = $3
				AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
		)
	`

	var critical bool
	if err := v.q.QueryRow(ctx, query, v.schema, table, column).Scan(&critical); err != nil {
		return false, fmt.Errorf("failed to check constraints on %s.%s: %w", table, column, err)
	}
	return critical, nil
}

// ValidateDataType checks the type name against the engine's type catalog.
// to_regtype resolves standard aliases (INTEGER, DECIMAL, BOOLEAN) that do
// not appear verbatim in pg_type.
func (v *Validator) ValidateDataType(ctx context.Context, typeName string) (bool, error) {
	query := `SELECT to_regtype($1) IS NOT NULL`

	var valid bool
	if err := v.q.QueryRow(ctx, query, strings.ToLower(typeName)).Scan(&valid); err != nil {
		return false, fmt.Errorf("failed to validate data type %s: %w", typeName, err)
	}
	return valid, nil
}

// ValidateColumnDefinitions rejects duplicate column names and unrecognized
// data types.
func (v *Validator) ValidateColumnDefinitions(ctx context.Context, columns []ColumnDefinition) error {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col.Name] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate column name '%s'", col.Name)}
		}
		seen[col.Name] = true
	}

	for _, col := range columns {
		valid, err := v.ValidateDataType(ctx, string(col.Type))
		if err != nil {
			return err
		}
		if !valid {
			return &ValidationError{Reason: fmt.Sprintf("invalid data type: %s", col.Type)}
		}
	}
	return nil
}

// TableColumns returns the table's columns in ordinal position order.
func (v *Validator) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := v.q.Query(ctx, query, v.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable string

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default); err != nil {
			return nil, err
		}
		col.Nullable = (nullable == "YES")

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// TableIndexes returns the names of all indexes on the table.
func (v *Validator) TableIndexes(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY indexname
	`

	rows, err := v.q.Query(ctx, query, v.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		indexes = append(indexes, name)
	}

	return indexes, rows.Err()
}

// TableConstraints returns one entry per constraint/column pairing on the table.
func (v *Validator) TableConstraints(ctx context.Context, table string) ([]ConstraintInfo, error) {
	query := `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := v.q.Query(ctx, query, v.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints of %s: %w", table, err)
	}
	defer rows.Close()

	var constraints []ConstraintInfo
	for rows.Next() {
		var c ConstraintInfo
		if err := rows.Scan(&c.Name, &c.Type, &c.Column); err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// AllTables returns all base table names in the scoped schema, sorted.
func (v *Validator) AllTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := v.q.Query(ctx, query, v.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// ColumnCount returns the number of columns on the table.
func (v *Validator) ColumnCount(ctx context.Context, table string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
	`

	var count int
	if err := v.q.QueryRow(ctx, query, v.schema, table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count columns of %s: %w", table, err)
	}
	return count, nil
}

// HasPrimaryKey reports whether the table has a primary key constraint.
func (v *Validator) HasPrimaryKey(ctx context.Context, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_schema = $1
				AND table_name = $2
				AND constraint_type = 'PRIMARY KEY'
		)
	`

	var has bool
	if err := v.q.QueryRow(ctx, query, v.schema, table).Scan(&has); err != nil {
		return false, fmt.Errorf("failed to check primary key of %s: %w", table, err)
	}
	return has, nil
}
