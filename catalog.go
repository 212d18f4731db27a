package sfmcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQL queries for catalog listing. INFORMATION_SCHEMA views are scoped to a
// database, so schema and table listings qualify the view with the target
// database while database listing runs against the shared SNOWFLAKE database.

const listDatabasesSQL = `
SELECT DATABASE_NAME
FROM SNOWFLAKE.INFORMATION_SCHEMA.DATABASES
ORDER BY DATABASE_NAME;
`

const listSchemasSQL = `
SELECT SCHEMA_NAME
FROM %s.INFORMATION_SCHEMA.SCHEMATA
ORDER BY SCHEMA_NAME;
`

const listTablesSQL = `
SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, COALESCE(COMMENT, '')
FROM %s.INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME;
`

// ListDatabases returns the databases visible to the current role, minus
// those hidden by whole-database exclusion rules. A database is hidden from
// the listing only when a rule excludes it wholesale — rules that hide
// individual schemas or tables leave their parent database listed.
func (p *SnowflakeMcp) ListDatabases(ctx context.Context, input ListDatabasesInput) (*ListDatabasesOutput, error) {
	startTime := time.Now()

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("ListDatabases: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.ListTimeoutSeconds)*time.Second)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return nil, err
	}

	rows, err := sess.QueryContext(queryCtx, listDatabasesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	output := &ListDatabasesOutput{Databases: []DatabaseEntry{}}
	hidden := 0
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		if !p.exclusions.DatabaseVisible(name) {
			hidden++
			continue
		}
		output.Databases = append(output.Databases, DatabaseEntry{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	output.DataID = uuid.NewString()

	p.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("database_count", len(output.Databases)).
		Int("hidden_count", hidden).
		Msg("ListDatabases executed")

	return output, nil
}

// ListSchemas returns the schemas of one database, minus those hidden by
// whole-schema exclusion rules.
func (p *SnowflakeMcp) ListSchemas(ctx context.Context, input ListSchemasInput) (*ListSchemasOutput, error) {
	startTime := time.Now()

	if input.Database == "" {
		return nil, fmt.Errorf("missing required 'database' parameter")
	}
	database := foldIdent(input.Database)

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("ListSchemas: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.ListTimeoutSeconds)*time.Second)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(listSchemasSQL, quoteIdent(database))
	rows, err := sess.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas in %s: %w", database, err)
	}
	defer rows.Close()

	output := &ListSchemasOutput{Database: database, Schemas: []SchemaEntry{}}
	hidden := 0
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		if !p.exclusions.SchemaVisible(database, name) {
			hidden++
			continue
		}
		output.Schemas = append(output.Schemas, SchemaEntry{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	output.DataID = uuid.NewString()

	p.logger.Info().
		Str("database", database).
		Dur("duration", time.Since(startTime)).
		Int("schema_count", len(output.Schemas)).
		Int("hidden_count", hidden).
		Msg("ListSchemas executed")

	return output, nil
}

// ListTables returns the tables and views of one schema, minus those hidden
// by exclusion rules.
func (p *SnowflakeMcp) ListTables(ctx context.Context, input ListTablesInput) (*ListTablesOutput, error) {
	startTime := time.Now()

	if input.Database == "" {
		return nil, fmt.Errorf("missing required 'database' parameter")
	}
	if input.Schema == "" {
		return nil, fmt.Errorf("missing required 'schema' parameter")
	}
	database := foldIdent(input.Database)
	schema := foldIdent(input.Schema)

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("ListTables: %w", err)
	}
	defer p.releaseSlot()

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.ListTimeoutSeconds)*time.Second)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(listTablesSQL, quoteIdent(database))
	rows, err := sess.QueryContext(queryCtx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s.%s: %w", database, schema, err)
	}
	defer rows.Close()

	output := &ListTablesOutput{Database: database, Schema: schema, Tables: []TableEntry{}}
	hidden := 0
	for rows.Next() {
		var entry TableEntry
		if err := rows.Scan(&entry.Database, &entry.Schema, &entry.Name, &entry.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if !p.exclusions.Visible(entry.Database, entry.Schema, entry.Name) {
			hidden++
			continue
		}
		output.Tables = append(output.Tables, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	output.DataID = uuid.NewString()

	p.logger.Info().
		Str("database", database).
		Str("schema", schema).
		Dur("duration", time.Since(startTime)).
		Int("table_count", len(output.Tables)).
		Int("hidden_count", hidden).
		Msg("ListTables executed")

	return output, nil
}

// quoteIdent escapes a SQL identifier for interpolation into catalog
// queries. Doubles embedded double-quotes and wraps in double-quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// foldIdent resolves a user-supplied identifier the way Snowflake resolves
// it in SQL: an unquoted identifier folds to uppercase, a double-quoted one
// names the exact stored spelling. Without the fold, quoteIdent would turn
// "mydb" into a case-sensitive lookup that misses MYDB.
func foldIdent(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return strings.ToUpper(name)
}
