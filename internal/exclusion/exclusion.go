// Package exclusion hides configured database/schema/table triples from
// introspection results. Patterns are glob strings compiled once at startup;
// evaluation is pure and safe for concurrent use.
package exclusion

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Rule is one raw exclusion pattern. Each segment is a glob where "*"
// matches any sequence (including empty) and everything else matches
// case-insensitively. A missing segment is equivalent to "*".
type Rule struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table"`
}

type compiledRule struct {
	database glob.Glob
	schema   glob.Glob
	table    glob.Glob
	// wholeDB is true when the rule excludes an entire database (schema
	// and table segments are both unrestricted); wholeSchema likewise for
	// an entire schema. Only such rules may hide a parent container from
	// the list_databases / list_schemas views.
	wholeDB     bool
	wholeSchema bool
}

// Set is an immutable compiled pattern set.
type Set struct {
	rules []compiledRule
}

// Compile builds a Set from raw rules. Any malformed glob is a
// configuration error; the caller must treat it as fatal at startup.
func Compile(rules []Rule) (*Set, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		db, err := compileSegment(r.Database)
		if err != nil {
			return nil, fmt.Errorf("exclusion: rule %d: invalid database pattern %q: %v", i, r.Database, err)
		}
		sc, err := compileSegment(r.Schema)
		if err != nil {
			return nil, fmt.Errorf("exclusion: rule %d: invalid schema pattern %q: %v", i, r.Schema, err)
		}
		tb, err := compileSegment(r.Table)
		if err != nil {
			return nil, fmt.Errorf("exclusion: rule %d: invalid table pattern %q: %v", i, r.Table, err)
		}
		compiled[i] = compiledRule{
			database:    db,
			schema:      sc,
			table:       tb,
			wholeDB:     unrestricted(r.Schema) && unrestricted(r.Table),
			wholeSchema: unrestricted(r.Table),
		}
	}
	return &Set{rules: compiled}, nil
}

// compileSegment compiles one glob segment; empty means match-all.
func compileSegment(pattern string) (glob.Glob, error) {
	if pattern == "" {
		pattern = "*"
	}
	return glob.Compile(strings.ToLower(pattern))
}

func unrestricted(pattern string) bool {
	return pattern == "" || pattern == "*"
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Visible reports whether the given table should appear in introspection
// output. It is false iff at least one rule matches the database, schema,
// and table segments all at once.
func (s *Set) Visible(database, schema, table string) bool {
	db, sc, tb := strings.ToLower(database), strings.ToLower(schema), strings.ToLower(table)
	for _, r := range s.rules {
		if r.database.Match(db) && r.schema.Match(sc) && r.table.Match(tb) {
			return false
		}
	}
	return true
}

// DatabaseVisible reports whether a database should appear in the
// list_databases view. Only whole-database rules hide it — a rule that
// excludes a single table must not hide the database containing it.
func (s *Set) DatabaseVisible(database string) bool {
	db := strings.ToLower(database)
	for _, r := range s.rules {
		if r.wholeDB && r.database.Match(db) {
			return false
		}
	}
	return true
}

// SchemaVisible reports whether a schema should appear in the list_schemas
// view. Hidden by whole-schema rules (table segment unrestricted) whose
// database and schema segments both match.
func (s *Set) SchemaVisible(database, schema string) bool {
	db, sc := strings.ToLower(database), strings.ToLower(schema)
	for _, r := range s.rules {
		if r.wholeSchema && r.database.Match(db) && r.schema.Match(sc) {
			return false
		}
	}
	return true
}
