// Package protection classifies SQL scripts as read-only or mutating and
// gates them against the server's write policy. Classification is purely
// lexical — it inspects the leading keyword chain of each statement and
// never executes SQL. Anything it cannot positively identify as a read
// classifies as a write.
package protection

import (
	"fmt"
	"strings"

	"github.com/quarrydata/snowflake-mcp/internal/sqllex"
)

// Config is the checker's own config type.
type Config struct {
	// AllowWrite permits statements classified as writes. When false,
	// Check rejects any script containing a write statement.
	AllowWrite bool
}

// Checker classifies SQL and enforces the write policy. Safe for concurrent
// use: it holds no mutable state.
type Checker struct {
	config Config
}

// NewChecker creates a new Checker with the given config.
func NewChecker(config Config) *Checker {
	return &Checker{config: config}
}

// Result is the classification of a single statement.
type Result struct {
	// Text is the statement's trimmed original text.
	Text string
	// Write reports whether executing the statement would mutate state.
	// Set on every positive match of a write keyword and on every
	// statement that could not be positively identified as a read.
	Write bool
	// Keyword is the leading keyword that decided the classification,
	// uppercased. Empty when no keyword could be extracted.
	Keyword string
	// Reason is set when the statement was classified write fail-closed
	// rather than by a keyword match (lex errors, unrecognized syntax).
	Reason string
}

// readKeywords positively identify read-only statements.
var readKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"EXPLAIN":  true,
	"USE":      true,
}

// writeKeywords positively identify mutating statements. The set exists for
// reporting quality only — any keyword outside readKeywords classifies as
// write regardless.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"UPSERT": true, "CREATE": true, "DROP": true, "UNDROP": true,
	"ALTER": true, "TRUNCATE": true, "GRANT": true, "REVOKE": true,
	"COPY": true, "PUT": true, "GET": true, "CALL": true,
	"REMOVE": true, "COMMENT": true, "SET": true,
	"BEGIN": true, "COMMIT": true, "ROLLBACK": true,
}

// cteBodyKeywords are the statements a WITH prefix can wrap. The scan for
// them decides the classification of CTE-prefixed statements.
var cteBodyKeywords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
}

// Classify lexes sql, splits it into statements, and classifies each one.
// It is a pure function of its input and never fails: input that cannot be
// lexed yields a single fail-closed write result carrying the lex error.
// Every statement is classified — a write early in the script does not
// short-circuit evaluation of the rest — so callers can report exactly
// which statements would mutate state.
func (c *Checker) Classify(sql string) []Result {
	tokens, err := sqllex.Lex(sql)
	if err != nil {
		return []Result{{
			Text:   strings.TrimSpace(sql),
			Write:  true,
			Reason: err.Error(),
		}}
	}
	stmts := sqllex.Split(tokens)
	results := make([]Result, len(stmts))
	for i, stmt := range stmts {
		results[i] = classifyStatement(stmt)
	}
	return results
}

// Check classifies sql and returns an error if the script violates the
// write policy. The error names the first offending statement so agents
// can see exactly what was denied. A nil return means every statement is
// read-only, or writes are allowed.
func (c *Checker) Check(sql string) error {
	if c.config.AllowWrite {
		return nil
	}
	return c.CheckReadOnly(sql)
}

// CheckReadOnly returns an error unless every statement in sql is
// read-only. Used by the read path regardless of the write policy:
// read_query never executes writes even when writes are enabled.
func (c *Checker) CheckReadOnly(sql string) error {
	results := c.Classify(sql)
	if len(results) == 0 {
		return fmt.Errorf("empty query")
	}
	for i, r := range results {
		if !r.Write {
			continue
		}
		if r.Reason != "" {
			return fmt.Errorf("statement %d cannot be verified as read-only (%s): %s",
				i+1, r.Reason, summarize(r.Text))
		}
		return fmt.Errorf("write operations are not allowed: statement %d is a %s statement: %s",
			i+1, r.Keyword, summarize(r.Text))
	}
	return nil
}

// ContainsWrite reports whether any statement in results is a write.
func ContainsWrite(results []Result) bool {
	for _, r := range results {
		if r.Write {
			return true
		}
	}
	return false
}

// IsCreateTable reports whether sql is a single CREATE ... TABLE statement.
// Accepts the Snowflake modifiers between CREATE and TABLE (OR REPLACE,
// TEMPORARY, TRANSIENT, etc.).
func IsCreateTable(sql string) bool {
	tokens, err := sqllex.Lex(sql)
	if err != nil {
		return false
	}
	stmts := sqllex.Split(tokens)
	if len(stmts) != 1 {
		return false
	}
	sig := significant(stmts[0])
	if len(sig) == 0 || upperText(sig[0]) != "CREATE" {
		return false
	}
	rest := sig[1:]
	if len(rest) > 7 {
		rest = rest[:7]
	}
	// Scan the modifier window for TABLE; stop at the first token that
	// cannot be a modifier (the object name).
	for _, tok := range rest {
		switch upperText(tok) {
		case "TABLE":
			return true
		case "OR", "REPLACE", "LOCAL", "GLOBAL", "TEMP", "TEMPORARY",
			"VOLATILE", "TRANSIENT", "ICEBERG", "HYBRID", "DYNAMIC",
			"EXTERNAL", "EVENT":
			continue
		default:
			return false
		}
	}
	return false
}

// classifyStatement inspects the leading keyword chain of one statement.
func classifyStatement(stmt sqllex.Statement) Result {
	r := Result{Text: stmt.Text()}
	sig := significant(stmt)
	if len(sig) == 0 {
		r.Write = true
		r.Reason = "no tokens"
		return r
	}

	lead := sig[0]
	if lead.Kind != sqllex.KindKeyword {
		r.Write = true
		r.Reason = fmt.Sprintf("statement starts with %s %q", lead.Kind, lead.Text)
		return r
	}

	kw := upperText(lead)
	if kw == "WITH" {
		return classifyCTE(stmt, sig)
	}
	r.Keyword = kw
	r.Write = !readKeywords[kw]
	if r.Write && !writeKeywords[kw] {
		r.Reason = "unrecognized statement keyword"
	}
	return r
}

// classifyCTE resolves a WITH-prefixed statement by scanning past the CTE
// definitions for the wrapped statement's keyword. CTE bodies sit inside
// parentheses, so the first SELECT/INSERT/UPDATE/DELETE/MERGE keyword at
// paren depth zero is the statement the prefix wraps. A prefix that never
// resolves to one of those classifies write.
func classifyCTE(stmt sqllex.Statement, sig []sqllex.Token) Result {
	r := Result{Text: stmt.Text()}
	depth := 0
	for _, tok := range sig[1:] {
		switch {
		case tok.Kind == sqllex.KindPunctuation && tok.Text == "(":
			depth++
		case tok.Kind == sqllex.KindPunctuation && tok.Text == ")":
			depth--
		case depth == 0 && tok.Kind == sqllex.KindKeyword:
			kw := upperText(tok)
			if cteBodyKeywords[kw] {
				r.Keyword = kw
				r.Write = !readKeywords[kw]
				return r
			}
		}
	}
	r.Keyword = "WITH"
	r.Write = true
	r.Reason = "WITH prefix does not wrap a recognizable statement"
	return r
}

func significant(stmt sqllex.Statement) []sqllex.Token {
	var out []sqllex.Token
	for _, tok := range stmt.Tokens {
		if tok.Significant() {
			out = append(out, tok)
		}
	}
	return out
}

func upperText(tok sqllex.Token) string {
	return strings.ToUpper(tok.Text)
}

// summarize trims a statement for error messages.
func summarize(text string) string {
	const max = 120
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
