// Package sqllex lexes raw SQL text into typed tokens and splits token
// streams into top-level statements. It is a deliberately small finite-state
// lexer: it understands string literals, quoted identifiers, and comments
// well enough to never misread their contents as SQL, and nothing more.
// Lexing is a pure function of the input — no state survives a call.
package sqllex

import "fmt"

// SyntaxError reports input the lexer could not terminate, such as an
// unclosed string literal or block comment. Pos is the byte offset where
// the unterminated construct started.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SQL syntax error at byte %d: %s", e.Pos, e.Msg)
}

// lexer states. The state machine only leaves stDefault for constructs whose
// contents must be opaque to the rest of the pipeline.
type state int

const (
	stDefault state = iota
	stString
	stLineComment
	stBlockComment
	stQuotedIdent
)

// Lex tokenizes input. Every byte of the input appears in exactly one token,
// in order, so concatenating token texts reproduces the input. The only
// failure mode is an unterminated string, quoted identifier, or block
// comment, reported as *SyntaxError.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	st := stDefault
	start := 0 // start offset of the token being accumulated
	i := 0
	n := len(input)

	emit := func(kind TokenKind, end int) {
		tokens = append(tokens, Token{Kind: kind, Text: input[start:end], Pos: start})
		start = end
	}

	for i < n {
		c := input[i]
		switch st {
		case stDefault:
			switch {
			case isSpace(c):
				j := i + 1
				for j < n && isSpace(input[j]) {
					j++
				}
				emit(KindWhitespace, j)
				i = j

			case c == '\'':
				st = stString
				i++

			case c == '"':
				st = stQuotedIdent
				i++

			case c == '-' && i+1 < n && input[i+1] == '-',
				c == '/' && i+1 < n && input[i+1] == '/':
				st = stLineComment
				i += 2

			case c == '/' && i+1 < n && input[i+1] == '*':
				st = stBlockComment
				i += 2

			case isDigit(c):
				i = scanNumber(input, i)
				emit(KindNumber, i)

			case isWordStart(c):
				j := i + 1
				for j < n && isWordChar(input[j]) {
					j++
				}
				word := input[i:j]
				if keywords[upper(word)] {
					emit(KindKeyword, j)
				} else {
					emit(KindIdentifier, j)
				}
				i = j

			case isPunct(c):
				emit(KindPunctuation, i+1)
				i++

			default:
				// Operators and any remaining characters (@stage refs,
				// Snowflake variable sigils) lex as single-byte operators.
				emit(KindOperator, i+1)
				i++
			}

		case stString:
			switch {
			case c == '\\' && i+1 < n:
				i += 2 // backslash escape, including \'
			case c == '\'' && i+1 < n && input[i+1] == '\'':
				i += 2 // doubled-quote escape
			case c == '\'':
				i++
				emit(KindString, i)
				st = stDefault
			default:
				i++
			}

		case stQuotedIdent:
			switch {
			case c == '"' && i+1 < n && input[i+1] == '"':
				i += 2
			case c == '"':
				i++
				emit(KindQuotedIdent, i)
				st = stDefault
			default:
				i++
			}

		case stLineComment:
			if c == '\n' {
				emit(KindComment, i) // newline is whitespace, not comment text
				st = stDefault
			} else {
				i++
			}

		case stBlockComment:
			if c == '*' && i+1 < n && input[i+1] == '/' {
				i += 2
				emit(KindComment, i)
				st = stDefault
			} else {
				i++
			}
		}
	}

	switch st {
	case stString:
		return nil, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
	case stQuotedIdent:
		return nil, &SyntaxError{Pos: start, Msg: "unterminated quoted identifier"}
	case stBlockComment:
		return nil, &SyntaxError{Pos: start, Msg: "unterminated block comment"}
	}
	if st == stLineComment && start < n {
		// line comment running to end of input is fine
		tokens = append(tokens, Token{Kind: KindComment, Text: input[start:], Pos: start})
	}
	return tokens, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// isWordChar accepts '$' mid-word: Snowflake identifiers may contain it.
func isWordChar(c byte) bool {
	return isWordStart(c) || isDigit(c) || c == '$'
}

func isPunct(c byte) bool {
	switch c {
	case ';', ',', '(', ')', '[', ']', '{', '}', '.':
		return true
	}
	return false
}

// scanNumber consumes an integer or decimal literal with optional exponent,
// starting at i. Returns the offset past the literal.
func scanNumber(s string, i int) int {
	n := len(s)
	for i < n && isDigit(s[i]) {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && isDigit(s[i]) {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < n && isDigit(s[j]) {
			i = j
			for i < n && isDigit(s[i]) {
				i++
			}
		}
	}
	return i
}

// upper uppercases ASCII letters without allocating for already-upper input.
func upper(s string) string {
	hasLower := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
