package sfmcp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const describeColumnsSQL = `
SELECT
    COLUMN_NAME,
    DATA_TYPE,
    CASE IS_NULLABLE WHEN 'YES' THEN TRUE ELSE FALSE END,
    COALESCE(COLUMN_DEFAULT, ''),
    COALESCE(COMMENT, '')
FROM %s.INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION;
`

// DescribeTable returns the column layout of a fully-qualified table.
// A table hidden by exclusion rules produces the same "not found" error as
// a table that does not exist, so probing with describe_table cannot
// confirm that a hidden object is there.
func (p *SnowflakeMcp) DescribeTable(ctx context.Context, input DescribeTableInput) (*DescribeTableOutput, error) {
	startTime := time.Now()

	database, schema, table, err := parseQualifiedName(input.Table)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx); err != nil {
		return nil, fmt.Errorf("DescribeTable: %w", err)
	}
	defer p.releaseSlot()

	if !p.exclusions.Visible(database, schema, table) {
		return nil, notFoundErr(database, schema, table)
	}

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.DescribeTableTimeoutSeconds)*time.Second)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(describeColumnsSQL, quoteIdent(database))
	rows, err := sess.QueryContext(queryCtx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s.%s.%s: %w", database, schema, table, err)
	}
	defer rows.Close()

	output := &DescribeTableOutput{
		Database: database,
		Schema:   schema,
		Table:    table,
		Columns:  []ColumnInfo{},
	}
	for rows.Next() {
		var col ColumnInfo
		var def, comment sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &def, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Default = def.String
		col.Comment = comment.String
		output.Columns = append(output.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// INFORMATION_SCHEMA.COLUMNS returns zero rows for a missing table
	// rather than an error.
	if len(output.Columns) == 0 {
		return nil, notFoundErr(database, schema, table)
	}
	output.DataID = uuid.NewString()

	p.logger.Info().
		Str("database", database).
		Str("schema", schema).
		Str("table", table).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(output.Columns)).
		Msg("DescribeTable executed")

	return output, nil
}

func notFoundErr(database, schema, table string) error {
	return fmt.Errorf("table not found: %s.%s.%s", database, schema, table)
}

// parseQualifiedName splits a database.schema.table reference, accepting
// double-quoted parts with doubled-quote escapes. Unquoted parts fold to
// uppercase the way Snowflake resolves them; quoted parts keep their exact
// spelling.
func parseQualifiedName(name string) (database, schema, table string, err error) {
	parts, err := splitQualifiedName(name)
	if err != nil {
		return "", "", "", err
	}
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("table must be fully qualified as database.schema.table, got %q", name)
	}
	resolved := make([]string, len(parts))
	for i, part := range parts {
		if part.text == "" {
			return "", "", "", fmt.Errorf("table must be fully qualified as database.schema.table, got %q", name)
		}
		resolved[i] = part.text
		if !part.quoted {
			resolved[i] = strings.ToUpper(part.text)
		}
	}
	return resolved[0], resolved[1], resolved[2], nil
}

// namePart is one dot-separated segment of a qualified name. quoted
// records whether the segment was double-quoted in the input, which
// decides whether it folds to uppercase.
type namePart struct {
	text   string
	quoted bool
}

// splitQualifiedName splits on dots outside double-quoted sections and
// unquotes each part.
func splitQualifiedName(name string) ([]namePart, error) {
	var parts []namePart
	var sb strings.Builder
	inQuotes := false
	quoted := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(name) && name[i+1] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			quoted = true
		case c == '.' && !inQuotes:
			parts = append(parts, namePart{text: sb.String(), quoted: quoted})
			sb.Reset()
			quoted = false
		default:
			sb.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted identifier in %q", name)
	}
	parts = append(parts, namePart{text: sb.String(), quoted: quoted})
	return parts, nil
}
