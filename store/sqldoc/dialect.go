package sqldoc

import (
	"encoding/json"
	"fmt"
)

// Dialect captures the SQL differences between supported engines.
type Dialect struct {
	// Name is a short label used in errors and logs.
	Name string

	// Driver is the database/sql driver name.
	Driver string

	// schema returns the DDL creating the document table.
	schema func(table string) string

	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string

	// field returns an expression extracting a top-level JSON field as text.
	field func(name string) string

	// arg converts a filter value to the bind argument compared against field.
	arg func(v any) any
}

// SQLite stores documents as JSON text and filters with json_extract.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	schema: func(table string) string {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		doc TEXT NOT NULL
	)`, table)
	},
	placeholder: func(int) string { return "?" },
	field: func(name string) string {
		return fmt.Sprintf("json_extract(doc, '$.%s')", name)
	},
	arg: func(v any) any { return v },
}

// Postgres stores documents as JSONB and filters with the ->> operator,
// which always yields text.
var Postgres = Dialect{
	Name:   "postgres",
	Driver: "pgx",
	schema: func(table string) string {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		doc JSONB NOT NULL
	)`, table)
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	field: func(name string) string {
		return fmt.Sprintf("doc->>'%s'", name)
	},
	arg: func(v any) any {
		if s, ok := v.(string); ok {
			return s
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	},
}
