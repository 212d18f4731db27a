package sfmcp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quarrydata/snowflake-mcp/internal/errprompt"
	"github.com/quarrydata/snowflake-mcp/internal/exclusion"
	"github.com/quarrydata/snowflake-mcp/internal/protection"
	"github.com/quarrydata/snowflake-mcp/internal/sanitize"
	"github.com/quarrydata/snowflake-mcp/internal/timeout"
)

// SnowflakeMcp is the core engine behind the MCP tools: query execution with
// read/write gating, catalog listing with exclusion filtering, table
// description, and the insight memo.
// All exported methods are safe for concurrent use from multiple goroutines.
type SnowflakeMcp struct {
	config     Config
	gate       *Gate
	semaphore  chan struct{}
	guard      *protection.Checker
	exclusions *exclusion.Set
	sanitizer  *sanitize.Sanitizer
	errPrompts *errprompt.Matcher
	timeoutMgr *timeout.Manager
	insights   *insightMemo
	logger     zerolog.Logger
}

// Option is a functional option for New().
type Option func(*options)

type options struct {
	opener SessionOpener
}

// WithSessionOpener replaces the default DSN-based opener. Used by tests to
// substitute a fake session, and by embedders that manage their own
// database handle.
func WithSessionOpener(opener SessionOpener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

// New creates a new SnowflakeMcp instance.
// dsn is the Snowflake connection string (must include credentials). No
// connection is made here — the session is established lazily by the first
// tool call that needs one, so the server starts even when Snowflake is
// unreachable.
// Panics on invalid config.
func New(dsn string, config Config, logger zerolog.Logger, opts ...Option) *SnowflakeMcp {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// --- Config validation (panics on invalid config) ---

	if dsn == "" && o.opener == nil {
		panic("sfmcp: dsn must be non-empty")
	}
	if config.Session.MaxConcurrent <= 0 {
		panic("sfmcp: session.max_concurrent must be > 0")
	}
	if config.Session.MaxLifetimeSeconds < 0 {
		panic("sfmcp: session.max_lifetime_seconds must be >= 0")
	}
	if config.Query.DefaultTimeoutSeconds <= 0 {
		panic("sfmcp: query.default_timeout_seconds must be > 0")
	}
	if config.Query.ListTimeoutSeconds <= 0 {
		panic("sfmcp: query.list_timeout_seconds must be > 0")
	}
	if config.Query.DescribeTableTimeoutSeconds <= 0 {
		panic("sfmcp: query.describe_table_timeout_seconds must be > 0")
	}

	// Apply defaults for zero values
	if config.Query.MaxSQLLength == 0 {
		config.Query.MaxSQLLength = 100000
	}
	if config.Query.MaxResultLength == 0 {
		config.Query.MaxResultLength = 100000
	}
	if config.Query.MaxSQLLength < 0 {
		panic("sfmcp: query.max_sql_length must be > 0")
	}
	if config.Query.MaxResultLength < 0 {
		panic("sfmcp: query.max_result_length must be > 0")
	}

	// Validate timeout rules
	for _, rule := range config.Query.TimeoutRules {
		if rule.TimeoutSeconds <= 0 {
			panic(fmt.Sprintf("sfmcp: timeout_rule with pattern %q has timeout_seconds <= 0", rule.Pattern))
		}
	}

	// --- Initialize internal components ---
	// All rule compilation happens here so bad patterns fail at startup,
	// not on the first tool call that hits them.

	exclusions, err := exclusion.Compile(mapExclusionRules(config.Exclude))
	if err != nil {
		panic(fmt.Sprintf("sfmcp: %v", err))
	}

	san, err := sanitize.NewSanitizer(mapSanitizationRules(config.Sanitization))
	if err != nil {
		panic(fmt.Sprintf("sfmcp: %v", err))
	}

	matcher, err := errprompt.NewMatcher(mapErrorPromptRules(config.ErrorPrompts))
	if err != nil {
		panic(fmt.Sprintf("sfmcp: %v", err))
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}
	tmgr, err := timeout.NewManager(timeout.Config{
		DefaultTimeout: time.Duration(config.Query.DefaultTimeoutSeconds) * time.Second,
		Rules:          timeoutRules,
	})
	if err != nil {
		panic(fmt.Sprintf("sfmcp: %v", err))
	}

	logger = logger.With().Str("component", "sfmcp").Logger()

	opener := o.opener
	if opener == nil {
		opener = NewDSNOpener(dsn, config.Session.MaxConcurrent)
	}
	gate := NewGate(opener, time.Duration(config.Session.MaxLifetimeSeconds)*time.Second, logger)

	return &SnowflakeMcp{
		config:     config,
		gate:       gate,
		semaphore:  make(chan struct{}, config.Session.MaxConcurrent),
		guard:      protection.NewChecker(protection.Config{AllowWrite: config.AllowWrite}),
		exclusions: exclusions,
		sanitizer:  san,
		errPrompts: matcher,
		timeoutMgr: tmgr,
		insights:   &insightMemo{},
		logger:     logger,
	}
}

// Phase reports the connection gate's lifecycle phase.
func (p *SnowflakeMcp) Phase() Phase {
	return p.gate.Phase()
}

// Ping establishes the session if necessary and verifies it is alive.
func (p *SnowflakeMcp) Ping(ctx context.Context) error {
	sess, err := p.gate.Get(ctx)
	if err != nil {
		return err
	}
	return sess.PingContext(ctx)
}

// Close tears down the Snowflake session, if one was established. Accepts
// context for API forward-compatibility; *sql.DB.Close does not support
// context-based shutdown.
func (p *SnowflakeMcp) Close(ctx context.Context) {
	if err := p.gate.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to close session")
	}
}

// ValidateExclusions compiles the exclusion rules without building an
// engine, reporting the first invalid pattern. Used by doctor.
func ValidateExclusions(rules []ExclusionRule) error {
	_, err := exclusion.Compile(mapExclusionRules(rules))
	return err
}

// mapExclusionRules converts sfmcp ExclusionRules to internal exclusion.Rules.
func mapExclusionRules(rules []ExclusionRule) []exclusion.Rule {
	result := make([]exclusion.Rule, len(rules))
	for i, r := range rules {
		result[i] = exclusion.Rule{
			Database: r.Database,
			Schema:   r.Schema,
			Table:    r.Table,
		}
	}
	return result
}

// mapSanitizationRules converts sfmcp SanitizationRules to internal sanitize.Rules.
func mapSanitizationRules(rules []SanitizationRule) []sanitize.Rule {
	result := make([]sanitize.Rule, len(rules))
	for i, r := range rules {
		result[i] = sanitize.Rule{
			Pattern:     r.Pattern,
			Replacement: r.Replacement,
		}
	}
	return result
}

// mapErrorPromptRules converts sfmcp ErrorPromptRules to internal errprompt.Rules.
func mapErrorPromptRules(rules []ErrorPromptRule) []errprompt.Rule {
	result := make([]errprompt.Rule, len(rules))
	for i, r := range rules {
		result[i] = errprompt.Rule{
			Pattern: r.Pattern,
			Message: r.Message,
		}
	}
	return result
}
