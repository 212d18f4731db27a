package sfmcp

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quarrydata/snowflake-mcp/internal/protection"
)

// ReadQuery executes a read-only SQL script and returns only QueryOutput.
// All errors (Snowflake errors, policy rejections, Go errors) are converted
// to output.Error. The error message is then evaluated against error_prompts
// patterns — any matching prompt messages are appended. This means callers
// only need to check output.Error, never a Go error.
//
// The read-only check applies regardless of allow_write: ReadQuery never
// executes writes even on a write-enabled server. Rejection happens before
// the connection gate is consulted, so a denied query on a cold server does
// not trigger a connection attempt.
func (p *SnowflakeMcp) ReadQuery(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()
	sql := input.SQL

	// 1. Acquire semaphore (respects context cancellation to prevent deadlock)
	if err := p.acquireSlot(ctx); err != nil {
		return p.handleError(err)
	}
	defer p.releaseSlot()

	// 2. Check SQL length (before any processing)
	if len(sql) > p.config.Query.MaxSQLLength {
		return p.handleError(fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(sql), p.config.Query.MaxSQLLength))
	}

	// 3. Classify and reject anything not positively read-only
	if err := p.guard.CheckReadOnly(sql); err != nil {
		return p.handleError(err)
	}

	// 4. Determine timeout
	timeout, timeoutRule := p.timeoutMgr.GetTimeoutWithPattern(sql)
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// 5. Session (lazy: first call connects)
	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return p.handleError(err)
	}

	// 6. Execute statements in order; the last result set is the output.
	// Snowflake's driver takes one statement per call, so scripts run
	// statement by statement.
	results := p.guard.Classify(sql)
	var output *QueryOutput
	for i, stmt := range results {
		rows, err := sess.QueryContext(queryCtx, stmt.Text)
		if err != nil {
			return p.handleError(p.wrapTimeout(queryCtx, timeout, fmt.Errorf("statement %d: %w", i+1, err)))
		}
		output, err = p.collectRows(rows)
		if err != nil {
			return p.handleError(p.wrapTimeout(queryCtx, timeout, fmt.Errorf("statement %d: %w", i+1, err)))
		}
	}
	if output == nil {
		return p.handleError(fmt.Errorf("empty query"))
	}

	// 7. Apply sanitization (per-field, recursive into VARIANT/ARRAY values)
	sanitized := p.sanitizer.HasRules()
	output.Rows = p.sanitizer.SanitizeRows(output.Rows)

	// 8. Apply max result length truncation
	p.truncateIfNeeded(output)

	output.DataID = uuid.NewString()

	// 9. Log successful query execution with pipeline details
	logEvent := p.logger.Info().
		Str("sql", truncateForLog(sql, 200)).
		Dur("duration", time.Since(startTime)).
		Int("statement_count", len(results)).
		Int("row_count", len(output.Rows)).
		Str("data_id", output.DataID)
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	if sanitized {
		logEvent = logEvent.Bool("sanitized", true)
	}
	logEvent.Msg("read query executed")

	return output
}

// WriteQuery executes a mutating SQL script. Rejected outright when the
// server is not write-enabled — before the connection gate is consulted.
// Scripts that contain no write statement are redirected to ReadQuery by
// error, mirroring how ReadQuery refuses writes.
func (p *SnowflakeMcp) WriteQuery(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()
	sql := input.SQL

	if err := p.acquireSlot(ctx); err != nil {
		return p.handleError(err)
	}
	defer p.releaseSlot()

	if len(sql) > p.config.Query.MaxSQLLength {
		return p.handleError(fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(sql), p.config.Query.MaxSQLLength))
	}

	if !p.config.AllowWrite {
		return p.handleError(fmt.Errorf("write operations are not allowed: the server is running in read-only mode"))
	}

	results := p.guard.Classify(sql)
	if len(results) == 0 {
		return p.handleError(fmt.Errorf("empty query"))
	}
	if !protection.ContainsWrite(results) {
		return p.handleError(fmt.Errorf("read-only statements are not allowed in write_query: use read_query instead"))
	}

	timeout, timeoutRule := p.timeoutMgr.GetTimeoutWithPattern(sql)
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return p.handleError(err)
	}

	var rowsAffected int64
	for i, stmt := range results {
		res, err := sess.ExecContext(queryCtx, stmt.Text)
		if err != nil {
			return p.handleError(p.wrapTimeout(queryCtx, timeout, fmt.Errorf("statement %d: %w", i+1, err)))
		}
		if n, err := res.RowsAffected(); err == nil {
			rowsAffected += n
		}
	}

	output := &QueryOutput{
		Columns:      []string{},
		Rows:         []map[string]interface{}{},
		RowsAffected: rowsAffected,
		DataID:       uuid.NewString(),
	}

	logEvent := p.logger.Info().
		Str("sql", truncateForLog(sql, 200)).
		Dur("duration", time.Since(startTime)).
		Int("statement_count", len(results)).
		Int64("rows_affected", rowsAffected).
		Str("data_id", output.DataID)
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	logEvent.Msg("write query executed")

	return output
}

// CreateTable executes a single CREATE TABLE statement. Narrower than
// WriteQuery on purpose: agents that only need DDL for a results table get
// a tool that cannot be talked into running arbitrary writes.
func (p *SnowflakeMcp) CreateTable(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()
	sql := input.SQL

	if err := p.acquireSlot(ctx); err != nil {
		return p.handleError(err)
	}
	defer p.releaseSlot()

	if len(sql) > p.config.Query.MaxSQLLength {
		return p.handleError(fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(sql), p.config.Query.MaxSQLLength))
	}

	if !p.config.AllowWrite {
		return p.handleError(fmt.Errorf("write operations are not allowed: the server is running in read-only mode"))
	}

	if !protection.IsCreateTable(sql) {
		return p.handleError(fmt.Errorf("only a single CREATE TABLE statement is allowed in create_table"))
	}

	timeout, _ := p.timeoutMgr.GetTimeoutWithPattern(sql)
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := p.gate.Get(queryCtx)
	if err != nil {
		return p.handleError(err)
	}

	if _, err := sess.ExecContext(queryCtx, sql); err != nil {
		return p.handleError(p.wrapTimeout(queryCtx, timeout, err))
	}

	output := &QueryOutput{
		Columns: []string{},
		Rows:    []map[string]interface{}{},
		DataID:  uuid.NewString(),
	}

	p.logger.Info().
		Str("sql", truncateForLog(sql, 200)).
		Dur("duration", time.Since(startTime)).
		Str("data_id", output.DataID).
		Msg("create table executed")

	return output
}

// acquireSlot takes a semaphore slot, respecting context cancellation.
func (p *SnowflakeMcp) acquireSlot(ctx context.Context) error {
	select {
	case p.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire query slot: all %d slots are in use, context cancelled while waiting: %w", cap(p.semaphore), ctx.Err())
	}
}

func (p *SnowflakeMcp) releaseSlot() {
	<-p.semaphore
}

// wrapTimeout converts a deadline-exceeded execution error into a
// TimeoutError so the resolved timeout value appears in the message.
func (p *SnowflakeMcp) wrapTimeout(ctx context.Context, timeout time.Duration, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &TimeoutError{Timeout: timeout, Err: err}
	}
	return err
}

// collectRows reads all rows from sql.Rows and returns a QueryOutput.
func (p *SnowflakeMcp) collectRows(rows *sql.Rows) (*QueryOutput, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryOutput{Columns: columns, Rows: resultRows}, nil
}

// convertValue converts a driver-returned value to a JSON-friendly Go type.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float32:
		if math.IsNaN(float64(val)) {
			return "NaN"
		}
		if math.IsInf(float64(val), 1) {
			return "Infinity"
		}
		if math.IsInf(float64(val), -1) {
			return "-Infinity"
		}
		return val
	case float64:
		if math.IsNaN(val) {
			return "NaN"
		}
		if math.IsInf(val, 1) {
			return "Infinity"
		}
		if math.IsInf(val, -1) {
			return "-Infinity"
		}
		return val
	case []byte:
		// BINARY columns — base64 encode
		return base64.StdEncoding.EncodeToString(val)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			result[k] = convertValue(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertValue(v)
		}
		return result
	default:
		return val
	}
}

// handleError converts any error into a QueryOutput with error message.
// The error message is evaluated against error_prompts — matching prompt
// messages are appended.
func (p *SnowflakeMcp) handleError(err error) *QueryOutput {
	errMsg := err.Error()
	prompt := p.errPrompts.Match(errMsg)
	patterns := p.errPrompts.MatchedPatterns(errMsg)

	logEvent := p.logger.Error().Err(err)
	if len(patterns) > 0 {
		logEvent = logEvent.Strs("error_prompts", patterns)
	}
	logEvent.Msg("query error")

	if prompt != "" {
		errMsg = errMsg + "\n\n" + prompt
	}
	return &QueryOutput{Error: errMsg}
}

// truncateIfNeeded truncates query output rows if they exceed MaxResultLength (in characters).
func (p *SnowflakeMcp) truncateIfNeeded(output *QueryOutput) {
	jsonBytes, _ := json.Marshal(output.Rows)
	jsonStr := string(jsonBytes)
	if utf8.RuneCountInString(jsonStr) <= p.config.Query.MaxResultLength {
		return
	}
	runes := []rune(jsonStr)
	truncated := string(runes[:p.config.Query.MaxResultLength])
	output.Rows = nil
	output.Error = truncated + "...[truncated] Result is too long! Add limits in your query!"
}

// truncateForLog truncates a string for log output to avoid oversized log entries.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
