package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

// Catalog is the read-only metadata view the service validates against.
// *Validator is the production implementation.
type Catalog interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	IsCriticalColumn(ctx context.Context, table, column string) (bool, error)
	ValidateColumnDefinitions(ctx context.Context, columns []ColumnDefinition) error
	TableColumns(ctx context.Context, table string) ([]ColumnInfo, error)
	TableIndexes(ctx context.Context, table string) ([]string, error)
	TableConstraints(ctx context.Context, table string) ([]ConstraintInfo, error)
	AllTables(ctx context.Context) ([]string, error)
	ColumnCount(ctx context.Context, table string) (int, error)
	HasPrimaryKey(ctx context.Context, table string) (bool, error)
}

// Executor runs a single generated statement.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service orchestrates validate, generate, execute for each schema operation.
// Validation reads and the mutating statement run in separate implicit
// transactions, so concurrent mutations race on the catalog; the database's
// own uniqueness enforcement is the backstop.
type Service struct {
	catalog Catalog
	exec    Executor
	gen     Generator
	logger  *slog.Logger
}

// NewService creates a schema service.
func NewService(catalog Catalog, exec Executor, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		exec:    exec,
		logger:  logger,
	}
}

// AddColumn adds a column to an existing table. The table must exist and the
// column must not.
func (s *Service) AddColumn(ctx context.Context, table string, col ColumnDefinition) (*MutationResult, error) {
	exists, err := s.catalog.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("validating table %s: %w", table, err)
	}
	if !exists {
		return nil, &TableNotFoundError{Table: table}
	}

	colExists, err := s.catalog.ColumnExists(ctx, table, col.Name)
	if err != nil {
		return nil, fmt.Errorf("validating column %s.%s: %w", table, col.Name, err)
	}
	if colExists {
		return nil, &ColumnExistsError{Column: col.Name}
	}

	sql, err := s.gen.AddColumn(table, col)
	if err != nil {
		return nil, err
	}

	if _, err := s.exec.Exec(ctx, sql); err != nil {
		return nil, &ExecutionError{Op: string(OpAddColumn), Err: err}
	}

	s.logger.Info("column added", "table", table, "column", col.Name)
	return &MutationResult{TableName: table, ColumnName: col.Name, SQL: sql}, nil
}

// DropColumn removes a column. The table and column must exist and the column
// must not participate in a primary or foreign key constraint.
func (s *Service) DropColumn(ctx context.Context, table, column string) (*MutationResult, error) {
	exists, err := s.catalog.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("validating table %s: %w", table, err)
	}
	if !exists {
		return nil, &TableNotFoundError{Table: table}
	}

	colExists, err := s.catalog.ColumnExists(ctx, table, column)
	if err != nil {
		return nil, fmt.Errorf("validating column %s.%s: %w", table, column, err)
	}
	if !colExists {
		return nil, &ColumnNotFoundError{Column: column}
	}

	critical, err := s.catalog.IsCriticalColumn(ctx, table, column)
	if err != nil {
		return nil, fmt.Errorf("checking constraints on %s.%s: %w", table, column, err)
	}
	if critical {
		return nil, &CriticalColumnError{Column: column}
	}

	sql, err := s.gen.DropColumn(table, column)
	if err != nil {
		return nil, err
	}

	if _, err := s.exec.Exec(ctx, sql); err != nil {
		return nil, &ExecutionError{Op: string(OpDropColumn), Err: err}
	}

	s.logger.Info("column dropped", "table", table, "column", column)
	return &MutationResult{TableName: table, ColumnName: column, SQL: sql}, nil
}

// CreateTable creates a new table. The table must not exist and the column
// set must pass definition validation before any statement is executed.
func (s *Service) CreateTable(ctx context.Context, table string, columns []ColumnDefinition) (*MutationResult, error) {
	exists, err := s.catalog.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("validating table %s: %w", table, err)
	}
	if exists {
		return nil, &TableExistsError{Table: table}
	}

	if err := s.catalog.ValidateColumnDefinitions(ctx, columns); err != nil {
		return nil, err
	}

	sql, err := s.gen.CreateTable(table, columns)
	if err != nil {
		return nil, err
	}

	if _, err := s.exec.Exec(ctx, sql); err != nil {
		return nil, &ExecutionError{Op: string(OpCreateTable), Err: err}
	}

	s.logger.Info("table created", "table", table, "columns", len(columns))
	return &MutationResult{TableName: table, ColumnCount: len(columns), SQL: sql}, nil
}

// TableInfo returns columns, indexes, and constraints for an existing table.
func (s *Service) TableInfo(ctx context.Context, table string) (*TableInfo, error) {
	exists, err := s.catalog.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("validating table %s: %w", table, err)
	}
	if !exists {
		return nil, &TableNotFoundError{Table: table}
	}

	columns, err := s.catalog.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	indexes, err := s.catalog.TableIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	constraints, err := s.catalog.TableConstraints(ctx, table)
	if err != nil {
		return nil, err
	}

	return &TableInfo{
		TableName:   table,
		Columns:     columns,
		Indexes:     indexes,
		Constraints: constraints,
	}, nil
}

// AllTables lists every table in the scoped schema with its column count and
// primary-key presence.
func (s *Service) AllTables(ctx context.Context) ([]TableSummary, error) {
	names, err := s.catalog.AllTables(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		count, err := s.catalog.ColumnCount(ctx, name)
		if err != nil {
			return nil, err
		}
		hasPK, err := s.catalog.HasPrimaryKey(ctx, name)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TableSummary{
			TableName:     name,
			ColumnCount:   count,
			HasPrimaryKey: hasPK,
		})
	}

	return summaries, nil
}
