package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// identPattern is the allow-list for table and column names. Anything outside
// it is rejected before the name is interpolated into DDL text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// maxIdentLen matches the PostgreSQL identifier length limit.
const maxIdentLen = 63

// quoteIdent validates name against the identifier allow-list and returns it
// double-quoted for safe interpolation.
func quoteIdent(name string) (string, error) {
	if name == "" || len(name) > maxIdentLen || !identPattern.MatchString(name) {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid identifier %q", name)}
	}
	return `"` + name + `"`, nil
}

// literalSQL renders a default value as a quoted SQL literal. Strings are
// single-quoted with embedded quotes doubled; numbers and booleans render as
// bare literals.
func literalSQL(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		// JSON numbers decode as float64; render integral values without a decimal point.
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", &ValidationError{Reason: fmt.Sprintf("unsupported default value %v (%T)", v, v)}
	}
}

// columnSQL renders a single column definition fragment.
func columnSQL(col ColumnDefinition) (string, error) {
	name, err := quoteIdent(col.Name)
	if err != nil {
		return "", err
	}
	if !col.Type.Valid() {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid data type: %s", col.Type)}
	}

	typ := string(col.Type)
	if col.Size != 0 {
		if col.Size < 0 {
			return "", &ValidationError{Reason: fmt.Sprintf("size must be positive, got %d", col.Size)}
		}
		if !col.Type.Sized() {
			return "", &ValidationError{Reason: fmt.Sprintf("type %s does not take a size", col.Type)}
		}
		typ = fmt.Sprintf("%s(%d)", typ, col.Size)
	}

	sql := name + " " + typ
	if !col.Nullable {
		sql += " NOT NULL"
	}
	if col.Default != nil {
		lit, err := literalSQL(col.Default)
		if err != nil {
			return "", err
		}
		sql += " DEFAULT " + lit
	}
	return sql, nil
}

// Generator builds DDL statements from structured column descriptions.
// It is pure and holds no state.
type Generator struct{}

// AddColumn builds an ALTER TABLE ... ADD COLUMN statement.
func (Generator) AddColumn(table string, col ColumnDefinition) (string, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	def, err := columnSQL(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", tbl, def), nil
}

// DropColumn builds an ALTER TABLE ... DROP COLUMN statement.
func (Generator) DropColumn(table, column string) (string, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	col, err := quoteIdent(column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", tbl, col), nil
}

// CreateTable builds a CREATE TABLE statement from the ordered column set.
func (Generator) CreateTable(table string, columns []ColumnDefinition) (string, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", &ValidationError{Reason: "at least one column is required"}
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		def, err := columnSQL(col)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", tbl, strings.Join(defs, ", ")), nil
}
