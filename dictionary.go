package sfmcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Data dictionary queries. Three passes over one database's
// INFORMATION_SCHEMA: tables first, then columns and constraints joined to
// them in memory. INFORMATION_SCHEMA itself is skipped, matching what an
// analyst means by "the structure of this database".

const dictionaryTablesSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE, COALESCE(TABLE_OWNER, ''), COALESCE(COMMENT, '')
FROM %s.INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA != 'INFORMATION_SCHEMA'
ORDER BY TABLE_SCHEMA, TABLE_NAME;
`

const dictionaryColumnsSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(COMMENT, '')
FROM %s.INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA != 'INFORMATION_SCHEMA'
ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION;
`

const dictionaryConstraintsSQL = `
SELECT TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME, CONSTRAINT_TYPE, COALESCE(COMMENT, '')
FROM %s.INFORMATION_SCHEMA.TABLE_CONSTRAINTS
WHERE TABLE_SCHEMA != 'INFORMATION_SCHEMA'
ORDER BY TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME;
`

// DataDictionary returns the structure of one database in a single call:
// every schema with its tables, and every table with its columns and
// constraints. Exclusion rules apply exactly as in the listing tools, so a
// hidden table never appears and neither do its columns or constraints.
// The CLI can run this once at startup (prefetch) to warm the session.
func (p *SnowflakeMcp) DataDictionary(ctx context.Context, input DataDictionaryInput) (*DataDictionaryOutput, error) {
	startTime := time.Now()

	if input.Database == "" {
		return nil, fmt.Errorf("missing required 'database' parameter")
	}
	database := foldIdent(input.Database)

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("DataDictionary: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.ListTimeoutSeconds)*time.Second)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return nil, err
	}

	dict := newDictionary()
	hidden, err := p.dictionaryTablesPass(queryCtx, sess, database, dict)
	if err != nil {
		return nil, err
	}
	if err := p.dictionaryColumnsPass(queryCtx, sess, database, dict); err != nil {
		return nil, err
	}
	if err := p.dictionaryConstraintsPass(queryCtx, sess, database, dict); err != nil {
		return nil, err
	}

	output := dict.output(database)
	output.DataID = uuid.NewString()

	tableCount := 0
	for _, schema := range output.Schemas {
		tableCount += len(schema.Tables)
	}
	p.logger.Info().
		Str("database", database).
		Dur("duration", time.Since(startTime)).
		Int("schema_count", len(output.Schemas)).
		Int("table_count", tableCount).
		Int("hidden_count", hidden).
		Msg("DataDictionary executed")

	return output, nil
}

// tableKey addresses a table across the three passes. A struct key rather
// than a joined string because table names may contain any character.
type tableKey struct {
	schema string
	table  string
}

// dictionary accumulates one database's structure. The tables pass decides
// membership and order; the column and constraint passes only attach to
// tables already present, which is how exclusion filtering propagates.
type dictionary struct {
	schemaOrder []string
	tableOrder  map[string][]string
	tables      map[tableKey]*DictionaryTable
}

func newDictionary() *dictionary {
	return &dictionary{
		tableOrder: make(map[string][]string),
		tables:     make(map[tableKey]*DictionaryTable),
	}
}

func (d *dictionary) add(schema string, entry DictionaryTable) {
	if _, ok := d.tableOrder[schema]; !ok {
		d.schemaOrder = append(d.schemaOrder, schema)
	}
	d.tableOrder[schema] = append(d.tableOrder[schema], entry.Name)
	d.tables[tableKey{schema: schema, table: entry.Name}] = &entry
}

func (d *dictionary) lookup(schema, table string) (*DictionaryTable, bool) {
	entry, ok := d.tables[tableKey{schema: schema, table: table}]
	return entry, ok
}

func (d *dictionary) output(database string) *DataDictionaryOutput {
	out := &DataDictionaryOutput{Database: database, Schemas: []DictionarySchema{}}
	for _, schemaName := range d.schemaOrder {
		schema := DictionarySchema{Name: schemaName, Tables: []DictionaryTable{}}
		for _, tableName := range d.tableOrder[schemaName] {
			schema.Tables = append(schema.Tables, *d.tables[tableKey{schema: schemaName, table: tableName}])
		}
		out.Schemas = append(out.Schemas, schema)
	}
	return out
}

func (p *SnowflakeMcp) dictionaryTablesPass(ctx context.Context, sess Session, database string, dict *dictionary) (int, error) {
	rows, err := sess.QueryContext(ctx, fmt.Sprintf(dictionaryTablesSQL, quoteIdent(database)))
	if err != nil {
		return 0, fmt.Errorf("failed to read table metadata for %s: %w", database, err)
	}
	defer rows.Close()

	hidden := 0
	for rows.Next() {
		var schemaName string
		var entry DictionaryTable
		if err := rows.Scan(&schemaName, &entry.Name, &entry.Type, &entry.Owner, &entry.Comment); err != nil {
			return hidden, fmt.Errorf("failed to scan table metadata: %w", err)
		}
		if !p.exclusions.Visible(database, schemaName, entry.Name) {
			hidden++
			continue
		}
		entry.Columns = []DictionaryColumn{}
		dict.add(schemaName, entry)
	}
	return hidden, rows.Err()
}

func (p *SnowflakeMcp) dictionaryColumnsPass(ctx context.Context, sess Session, database string, dict *dictionary) error {
	rows, err := sess.QueryContext(ctx, fmt.Sprintf(dictionaryColumnsSQL, quoteIdent(database)))
	if err != nil {
		return fmt.Errorf("failed to read column metadata for %s: %w", database, err)
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName string
		var col DictionaryColumn
		if err := rows.Scan(&schemaName, &tableName, &col.Name, &col.Type, &col.Comment); err != nil {
			return fmt.Errorf("failed to scan column metadata: %w", err)
		}
		entry, ok := dict.lookup(schemaName, tableName)
		if !ok {
			// Table hidden by exclusion rules; its columns stay hidden too.
			continue
		}
		entry.Columns = append(entry.Columns, col)
	}
	return rows.Err()
}

func (p *SnowflakeMcp) dictionaryConstraintsPass(ctx context.Context, sess Session, database string, dict *dictionary) error {
	rows, err := sess.QueryContext(ctx, fmt.Sprintf(dictionaryConstraintsSQL, quoteIdent(database)))
	if err != nil {
		return fmt.Errorf("failed to read constraint metadata for %s: %w", database, err)
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName string
		var constraint DictionaryConstraint
		if err := rows.Scan(&schemaName, &tableName, &constraint.Name, &constraint.Type, &constraint.Comment); err != nil {
			return fmt.Errorf("failed to scan constraint metadata: %w", err)
		}
		entry, ok := dict.lookup(schemaName, tableName)
		if !ok {
			continue
		}
		entry.Constraints = append(entry.Constraints, constraint)
	}
	return rows.Err()
}
