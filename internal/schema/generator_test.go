package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorAddColumn(t *testing.T) {
	var gen Generator

	tests := []struct {
		name    string
		table   string
		col     ColumnDefinition
		want    string
		wantErr bool
	}{
		{
			name:  "sized not null with default",
			table: "orders",
			col: ColumnDefinition{
				Name:     "qty",
				Type:     TypeVarchar,
				Size:     20,
				Nullable: false,
				Default:  "x",
			},
			want: `ALTER TABLE "orders" ADD COLUMN "qty" VARCHAR(20) NOT NULL DEFAULT 'x'`,
		},
		{
			name:  "plain nullable integer",
			table: "orders",
			col:   ColumnDefinition{Name: "count", Type: TypeInteger, Nullable: true},
			want:  `ALTER TABLE "orders" ADD COLUMN "count" INTEGER`,
		},
		{
			name:  "boolean default",
			table: "users",
			col:   ColumnDefinition{Name: "active", Type: TypeBoolean, Nullable: true, Default: true},
			want:  `ALTER TABLE "users" ADD COLUMN "active" BOOLEAN DEFAULT TRUE`,
		},
		{
			name:  "numeric default from JSON decode",
			table: "orders",
			col:   ColumnDefinition{Name: "total", Type: TypeDecimal, Nullable: true, Default: float64(10)},
			want:  `ALTER TABLE "orders" ADD COLUMN "total" DECIMAL DEFAULT 10`,
		},
		{
			name:  "string default with embedded quote is escaped",
			table: "users",
			col:   ColumnDefinition{Name: "surname", Type: TypeText, Nullable: true, Default: "O'Brien"},
			want:  `ALTER TABLE "users" ADD COLUMN "surname" TEXT DEFAULT 'O''Brien'`,
		},
		{
			name:    "size on non-sized type is rejected",
			table:   "orders",
			col:     ColumnDefinition{Name: "count", Type: TypeInteger, Size: 10, Nullable: true},
			wantErr: true,
		},
		{
			name:    "negative size is rejected",
			table:   "orders",
			col:     ColumnDefinition{Name: "qty", Type: TypeVarchar, Size: -1, Nullable: true},
			wantErr: true,
		},
		{
			name:    "unknown type is rejected",
			table:   "orders",
			col:     ColumnDefinition{Name: "blob", Type: "BYTEA", Nullable: true},
			wantErr: true,
		},
		{
			name:    "injection in column name is rejected",
			table:   "orders",
			col:     ColumnDefinition{Name: "x; DROP TABLE users", Type: TypeText, Nullable: true},
			wantErr: true,
		},
		{
			name:    "injection in table name is rejected",
			table:   "orders; DROP TABLE users; --",
			col:     ColumnDefinition{Name: "qty", Type: TypeText, Nullable: true},
			wantErr: true,
		},
		{
			name:    "empty table name is rejected",
			table:   "",
			col:     ColumnDefinition{Name: "qty", Type: TypeText, Nullable: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gen.AddColumn(tt.table, tt.col)
			if tt.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratorDropColumn(t *testing.T) {
	var gen Generator

	got, err := gen.DropColumn("orders", "qty")
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "orders" DROP COLUMN "qty"`, got)

	_, err = gen.DropColumn("orders", `qty" CASCADE; --`)
	require.Error(t, err)
}

func TestGeneratorCreateTable(t *testing.T) {
	var gen Generator

	nullable := ColumnDefinition{Name: "note", Type: TypeText, Nullable: true}
	id := ColumnDefinition{Name: "id", Type: TypeInteger, Nullable: false}
	name := ColumnDefinition{Name: "name", Type: TypeVarchar, Size: 50, Nullable: false, Default: "anon"}

	got, err := gen.CreateTable("people", []ColumnDefinition{id, name, nullable})
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE TABLE "people" ("id" INTEGER NOT NULL, "name" VARCHAR(50) NOT NULL DEFAULT 'anon', "note" TEXT);`,
		got)

	_, err = gen.CreateTable("people", nil)
	require.Error(t, err)

	_, err = gen.CreateTable("people", []ColumnDefinition{
		{Name: "ok", Type: TypeText, Nullable: true},
		{Name: "bad name", Type: TypeText, Nullable: true},
	})
	require.Error(t, err)
}

func TestColumnDefinitionNullableDefaultsTrue(t *testing.T) {
	var col ColumnDefinition
	require.NoError(t, col.UnmarshalJSON([]byte(`{"name":"qty","type":"INTEGER"}`)))
	assert.True(t, col.Nullable)

	require.NoError(t, col.UnmarshalJSON([]byte(`{"name":"qty","type":"INTEGER","nullable":false}`)))
	assert.False(t, col.Nullable)
}
