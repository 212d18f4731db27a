package sfmcp

import (
	"fmt"
	"time"
)

// ConnectionError wraps a failed session establishment. The gate stays in a
// retryable state after it: the next tool call attempts a fresh connection.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to establish Snowflake session: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a query exceeding its resolved timeout. The session
// itself stays usable; the statement is not retried.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query exceeded timeout of %s: %v", e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
