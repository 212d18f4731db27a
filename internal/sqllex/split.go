package sqllex

import "strings"

// Statement is one top-level SQL statement: an ordered slice of tokens with
// comments and whitespace retained for diagnostics.
type Statement struct {
	Tokens []Token
}

// Text reassembles the statement's original text, trimmed of surrounding
// whitespace.
func (s Statement) Text() string {
	var b strings.Builder
	for _, t := range s.Tokens {
		b.WriteString(t.Text)
	}
	return strings.TrimSpace(b.String())
}

// Empty reports whether the statement contains only whitespace and comments.
func (s Statement) Empty() bool {
	for _, t := range s.Tokens {
		if t.Significant() {
			return false
		}
	}
	return true
}

// Split partitions a token sequence into statements at top-level semicolons.
// The lexer already guarantees that semicolons inside strings, quoted
// identifiers, and comments never surface as punctuation tokens, so every
// ";" seen here is a real separator. Statements that are pure
// whitespace/comments are dropped; order is preserved.
func Split(tokens []Token) []Statement {
	var stmts []Statement
	var current []Token
	flush := func() {
		stmt := Statement{Tokens: current}
		if !stmt.Empty() {
			stmts = append(stmts, stmt)
		}
		current = nil
	}
	for _, t := range tokens {
		if t.Kind == KindPunctuation && t.Text == ";" {
			flush()
			continue
		}
		current = append(current, t)
	}
	flush()
	return stmts
}
