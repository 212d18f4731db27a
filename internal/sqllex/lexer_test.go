package sqllex

import (
	"errors"
	"reflect"
	"testing"
)

func mustLex(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", input, err)
	}
	return tokens
}

// kinds extracts the kind sequence of significant tokens.
func kinds(tokens []Token) []TokenKind {
	var out []TokenKind
	for _, tok := range tokens {
		if tok.Significant() {
			out = append(out, tok.Kind)
		}
	}
	return out
}

func TestLex_SimpleSelect(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "SELECT id, name FROM users")
	got := kinds(tokens)
	want := []TokenKind{
		KindKeyword, KindIdentifier, KindPunctuation,
		KindIdentifier, KindKeyword, KindIdentifier,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("kind sequence mismatch:\ngot  %v\nwant %v", got, want)
	}
}

func TestLex_RoundTrip(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"SELECT * FROM t WHERE x = 'a;b' -- trailing",
		"/* block */ INSERT INTO t VALUES (1, 2.5, 1e10)",
		`SELECT "Weird Name" FROM "My Table"`,
		"WITH x AS (SELECT 1) SELECT * FROM x;",
	}
	for _, input := range inputs {
		var rebuilt string
		for _, tok := range mustLex(t, input) {
			rebuilt += tok.Text
		}
		if rebuilt != input {
			t.Errorf("round trip mismatch:\ninput   %q\nrebuilt %q", input, rebuilt)
		}
	}
}

func TestLex_Deterministic(t *testing.T) {
	t.Parallel()
	input := "SELECT 'x''y', \"q\"\"z\" /* c */ FROM t -- done"
	first := mustLex(t, input)
	for i := 0; i < 10; i++ {
		again := mustLex(t, input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different tokens", i)
		}
	}
}

func TestLex_StringWithSemicolonAndKeywords(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "SELECT '; DROP TABLE x;'")
	for _, tok := range tokens {
		if tok.Kind == KindKeyword && tok.Text != "SELECT" {
			t.Fatalf("keyword leaked out of string literal: %q", tok.Text)
		}
		if tok.Kind == KindPunctuation && tok.Text == ";" {
			t.Fatal("semicolon inside string lexed as punctuation")
		}
	}
}

func TestLex_DoubledQuoteEscape(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "SELECT 'it''s fine'")
	var str *Token
	for i := range tokens {
		if tokens[i].Kind == KindString {
			str = &tokens[i]
		}
	}
	if str == nil {
		t.Fatal("no string token produced")
	}
	if str.Text != "'it''s fine'" {
		t.Fatalf("string token text = %q", str.Text)
	}
}

func TestLex_BackslashEscape(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, `SELECT 'a\'b' FROM t`)
	got := kinds(tokens)
	want := []TokenKind{KindKeyword, KindString, KindKeyword, KindIdentifier}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("kind sequence mismatch: got %v want %v", got, want)
	}
}

func TestLex_LineCommentVariants(t *testing.T) {
	t.Parallel()
	for _, input := range []string{
		"-- DROP TABLE x\nSELECT 1",
		"// DROP TABLE x\nSELECT 1",
	} {
		tokens := mustLex(t, input)
		if tokens[0].Kind != KindComment {
			t.Fatalf("input %q: first token kind = %v, want comment", input, tokens[0].Kind)
		}
	}
}

func TestLex_LineCommentAtEOF(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "SELECT 1 -- no newline")
	last := tokens[len(tokens)-1]
	if last.Kind != KindComment {
		t.Fatalf("last token kind = %v, want comment", last.Kind)
	}
}

func TestLex_BlockCommentHidesContents(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "/* INSERT INTO t; */ SELECT 1")
	if tokens[0].Kind != KindComment {
		t.Fatalf("first token kind = %v, want comment", tokens[0].Kind)
	}
	for _, tok := range tokens[1:] {
		if tok.Kind == KindKeyword && tok.Text == "INSERT" {
			t.Fatal("INSERT leaked out of block comment")
		}
	}
}

func TestLex_QuotedIdentifierIsNotKeyword(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, `SELECT "DROP" FROM t`)
	for _, tok := range tokens {
		if tok.Kind == KindKeyword && tok.Text == `"DROP"` {
			t.Fatal("quoted identifier lexed as keyword")
		}
	}
}

func TestLex_UnterminatedString(t *testing.T) {
	t.Parallel()
	_, err := Lex("SELECT 'oops")
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if synErr.Pos != 7 {
		t.Errorf("Pos = %d, want 7 (start of string literal)", synErr.Pos)
	}
}

func TestLex_UnterminatedBlockComment(t *testing.T) {
	t.Parallel()
	_, err := Lex("SELECT 1 /* never closed")
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
}

func TestLex_UnterminatedQuotedIdent(t *testing.T) {
	t.Parallel()
	_, err := Lex(`SELECT "oops`)
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
}

func TestLex_TrailingBackslashInString(t *testing.T) {
	t.Parallel()
	if _, err := Lex(`SELECT 'abc\`); err == nil {
		t.Fatal("expected error for string ending in lone backslash")
	}
}

func TestLex_Numbers(t *testing.T) {
	t.Parallel()
	tokens := mustLex(t, "SELECT 1, 2.5, 1e10, 3.14E-2")
	count := 0
	for _, tok := range tokens {
		if tok.Kind == KindNumber {
			count++
		}
	}
	if count != 4 {
		t.Fatalf("number token count = %d, want 4", count)
	}
}

func TestLex_KeywordCaseInsensitive(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"select 1", "SELECT 1", "SeLeCt 1"} {
		tokens := mustLex(t, input)
		if tokens[0].Kind != KindKeyword {
			t.Fatalf("input %q: first token kind = %v, want keyword", input, tokens[0].Kind)
		}
	}
}

func TestLex_SnowflakeStageReference(t *testing.T) {
	t.Parallel()
	// @stage and $1 references must lex without error.
	tokens := mustLex(t, "COPY INTO t FROM @my_stage/data.csv")
	if tokens[0].Kind != KindKeyword || tokens[0].Text != "COPY" {
		t.Fatalf("first token = %+v, want COPY keyword", tokens[0])
	}
}
