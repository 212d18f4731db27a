package sfmcp

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestParseQualifiedName(t *testing.T) {
	t.Parallel()
	db, schema, table, err := parseQualifiedName("PROD.PUBLIC.USERS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "PROD" || schema != "PUBLIC" || table != "USERS" {
		t.Fatalf("unexpected parts: %s %s %s", db, schema, table)
	}
}

func TestParseQualifiedNameQuoted(t *testing.T) {
	t.Parallel()
	db, schema, table, err := parseQualifiedName(`PROD."My.Schema"."Weird""Table"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "PROD" || schema != "My.Schema" || table != `Weird"Table` {
		t.Fatalf("unexpected parts: %q %q %q", db, schema, table)
	}
}

func TestParseQualifiedNameFoldsUnquotedParts(t *testing.T) {
	t.Parallel()
	db, schema, table, err := parseQualifiedName(`prod.public."Events"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "PROD" || schema != "PUBLIC" {
		t.Fatalf("unquoted parts must fold to uppercase, got %s.%s", db, schema)
	}
	if table != "Events" {
		t.Fatalf("quoted part must keep its spelling, got %q", table)
	}
}

func TestParseQualifiedNameRejectsPartial(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"USERS", "PUBLIC.USERS", "A.B.C.D", "PROD..USERS", `"unterminated`} {
		if _, _, _, err := parseQualifiedName(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestDescribeTableReturnsColumns(t *testing.T) {
	t.Parallel()
	db, mock := newMockSession(t)
	mock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("PUBLIC", "USERS").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "NULLABLE", "DEFAULT", "COMMENT"}).
			AddRow("ID", "NUMBER", false, "", "surrogate key").
			AddRow("EMAIL", "TEXT", true, "", ""))

	p := newTestMcp(t, testConfig(), &countingOpener{sess: db})
	output, err := p.DescribeTable(context.Background(), DescribeTableInput{Table: "PROD.PUBLIC.USERS"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Database != "PROD" || output.Schema != "PUBLIC" || output.Table != "USERS" {
		t.Fatalf("unexpected identity: %+v", output)
	}
	if len(output.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %v", output.Columns)
	}
	if output.Columns[0].Name != "ID" || output.Columns[0].Nullable {
		t.Fatalf("unexpected first column: %+v", output.Columns[0])
	}
	if output.Columns[0].Comment != "surrogate key" {
		t.Fatalf("expected column comment, got %+v", output.Columns[0])
	}
	if output.DataID == "" {
		t.Fatal("expected data_id")
	}
}

func TestDescribeTableRejectsUnqualifiedName(t *testing.T) {
	t.Parallel()
	p := newTestMcp(t, testConfig(), &countingOpener{sess: &fakeSession{}})
	_, err := p.DescribeTable(context.Background(), DescribeTableInput{Table: "USERS"})
	if err == nil || !strings.Contains(err.Error(), "fully qualified") {
		t.Fatalf("expected qualification error, got: %v", err)
	}
}

func TestDescribeTableMissingReportsNotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMockSession(t)
	mock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("PUBLIC", "GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "NULLABLE", "DEFAULT", "COMMENT"}))

	p := newTestMcp(t, testConfig(), &countingOpener{sess: db})
	_, err := p.DescribeTable(context.Background(), DescribeTableInput{Table: "PROD.PUBLIC.GHOST"})
	if err == nil || !strings.Contains(err.Error(), "table not found") {
		t.Fatalf("expected not found error, got: %v", err)
	}
}

func TestDescribeTableExcludedIndistinguishableFromMissing(t *testing.T) {
	t.Parallel()
	opener := &countingOpener{sess: &fakeSession{}}
	config := testConfig()
	config.Exclude = []ExclusionRule{{Schema: "SECRET"}}
	p := newTestMcp(t, config, opener)

	_, err := p.DescribeTable(context.Background(), DescribeTableInput{Table: "PROD.SECRET.KEYS"})
	if err == nil {
		t.Fatal("expected error for excluded table")
	}
	if !strings.Contains(err.Error(), "table not found") {
		t.Fatalf("excluded table must look missing, got: %v", err)
	}
	// The check runs before the gate: no query reveals the table exists.
	if got := opener.openCount(); got != 0 {
		t.Fatalf("expected no connection attempt for excluded table, got %d", got)
	}
}
