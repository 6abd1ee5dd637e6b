package schema

import "fmt"

// TableNotFoundError reports that a table does not exist in the catalog.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' does not exist", e.Table)
}

// TableExistsError reports an attempt to create a table that already exists.
type TableExistsError struct {
	Table string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("table '%s' already exists", e.Table)
}

// ColumnNotFoundError reports that a column does not exist on a table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column '%s' not found", e.Column)
}

// ColumnExistsError reports an attempt to add a column that already exists.
type ColumnExistsError struct {
	Column string
}

func (e *ColumnExistsError) Error() string {
	return fmt.Sprintf("column '%s' already exists", e.Column)
}

// CriticalColumnError reports an attempt to drop a column that participates
// in a primary or foreign key constraint.
type CriticalColumnError struct {
	Column string
}

func (e *CriticalColumnError) Error() string {
	return fmt.Sprintf("cannot drop critical column '%s'", e.Column)
}

// ValidationError reports a rejected column or identifier definition.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ExecutionError wraps an unexpected database failure while running a
// generated statement.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
