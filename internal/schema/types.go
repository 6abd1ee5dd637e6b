package schema

import "encoding/json"

// OperationType tags a schema mutation request. The set is closed; handlers
// match it exhaustively and reject unknown tags.
type OperationType string

const (
	OpAddColumn   OperationType = "add_column"
	OpDropColumn  OperationType = "drop_column"
	OpCreateTable OperationType = "create_table"
	OpGetSchema   OperationType = "get_schema"
)

// Valid reports whether op is one of the known operation tags.
func (op OperationType) Valid() bool {
	switch op {
	case OpAddColumn, OpDropColumn, OpCreateTable, OpGetSchema:
		return true
	}
	return false
}

// ColumnType enumerates the SQL types accepted for dynamically managed columns.
type ColumnType string

const (
	TypeInteger   ColumnType = "INTEGER"
	TypeVarchar   ColumnType = "VARCHAR"
	TypeText      ColumnType = "TEXT"
	TypeBoolean   ColumnType = "BOOLEAN"
	TypeTimestamp ColumnType = "TIMESTAMP"
	TypeDecimal   ColumnType = "DECIMAL"
)

// Valid reports whether t is one of the accepted column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeInteger, TypeVarchar, TypeText, TypeBoolean, TypeTimestamp, TypeDecimal:
		return true
	}
	return false
}

// sizedTypes are the types that take a length suffix, e.g. VARCHAR(20).
var sizedTypes = map[ColumnType]bool{
	"CHAR":    true,
	"VARCHAR": true,
	"BIT":     true,
	"VARBIT":  true,
}

// Sized reports whether t accepts a size.
func (t ColumnType) Sized() bool {
	return sizedTypes[t]
}

// ColumnDefinition describes a column for CREATE TABLE or ADD COLUMN.
// Default holds a literal value: string, number, or bool.
type ColumnDefinition struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Size     int        `json:"size,omitempty"`
	Nullable bool       `json:"nullable"`
	Default  any        `json:"default,omitempty"`
	Unique   bool       `json:"unique,omitempty"`
}

// UnmarshalJSON decodes a column definition with Nullable defaulting to true
// when the field is absent.
func (c *ColumnDefinition) UnmarshalJSON(data []byte) error {
	type alias ColumnDefinition
	a := alias{Nullable: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ColumnDefinition(a)
	return nil
}

// TableDescription is a table name with its ordered column definitions.
type TableDescription struct {
	TableName string             `json:"table_name"`
	Columns   []ColumnDefinition `json:"columns"`
}

// ColumnInfo is one column as reported by the catalog, in ordinal order.
type ColumnInfo struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default"`
}

// ConstraintInfo is one constraint/column pairing on a table.
type ConstraintInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Column string `json:"column"`
}

// TableInfo is the full introspection result for a single table.
type TableInfo struct {
	TableName   string           `json:"table_name"`
	Columns     []ColumnInfo     `json:"columns"`
	Indexes     []string         `json:"indexes"`
	Constraints []ConstraintInfo `json:"constraints"`
}

// TableSummary is one row of the all-tables listing.
type TableSummary struct {
	TableName     string `json:"table_name"`
	ColumnCount   int    `json:"column_count"`
	HasPrimaryKey bool   `json:"has_primary_key"`
}

// MutationResult reports a successfully executed schema mutation.
type MutationResult struct {
	TableName   string `json:"table_name"`
	ColumnName  string `json:"column_name,omitempty"`
	ColumnCount int    `json:"columns_count,omitempty"`
	SQL         string `json:"sql_executed"`
}
