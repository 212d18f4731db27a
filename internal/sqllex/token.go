package sqllex

// TokenKind classifies a lexical token.
type TokenKind int

const (
	KindKeyword TokenKind = iota
	KindIdentifier
	KindString
	KindQuotedIdent
	KindNumber
	KindOperator
	KindComment
	KindWhitespace
	KindPunctuation
)

// String returns a short name for the token kind, used in diagnostics.
func (k TokenKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindIdentifier:
		return "identifier"
	case KindString:
		return "string"
	case KindQuotedIdent:
		return "quoted_ident"
	case KindNumber:
		return "number"
	case KindOperator:
		return "operator"
	case KindComment:
		return "comment"
	case KindWhitespace:
		return "whitespace"
	case KindPunctuation:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is a single lexical token. Text is the exact slice of the input,
// Pos is the byte offset where it starts. Tokens are immutable values.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Significant reports whether the token carries SQL meaning
// (i.e. is neither whitespace nor a comment).
func (t Token) Significant() bool {
	return t.Kind != KindWhitespace && t.Kind != KindComment
}

// keywords is the set of words the lexer tags as KindKeyword. It covers the
// statement-leading words that matter for classification plus the structural
// words needed to walk CTE prefixes. Any other bare word lexes as an
// identifier, which classification treats as unrecognized.
var keywords = map[string]bool{
	"ALTER": true, "AS": true, "BEGIN": true, "CALL": true, "COMMENT": true,
	"COMMIT": true, "COPY": true, "CREATE": true, "DELETE": true,
	"DESC": true, "DESCRIBE": true, "DROP": true, "EXPLAIN": true,
	"FROM": true, "GET": true, "GRANT": true, "INSERT": true, "INTO": true,
	"LIST": true, "MERGE": true, "PUT": true, "RECURSIVE": true,
	"REMOVE": true, "REVOKE": true, "ROLLBACK": true, "SELECT": true,
	"SET": true, "SHOW": true, "TABLE": true, "TRUNCATE": true,
	"UNDROP": true, "UPDATE": true, "UPSERT": true, "USE": true,
	"VALUES": true, "WITH": true,
}
