package sfmcp

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
)

// countingOpener hands out a fixed session and counts how many times the
// gate asked for one. Err, when set, fails the attempt instead.
type countingOpener struct {
	mu    sync.Mutex
	opens int
	sess  Session
	err   error
}

func (o *countingOpener) Open(ctx context.Context) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.sess, nil
}

func (o *countingOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func (o *countingOpener) setErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// newMockSession returns a sqlmock-backed *sql.DB, which satisfies Session.
func newMockSession(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// testConfig fills in the required fields so individual tests only set what
// they exercise.
func testConfig() Config {
	return Config{
		Session: SessionConfig{MaxConcurrent: 4},
		Query: QueryConfig{
			DefaultTimeoutSeconds:       30,
			ListTimeoutSeconds:          10,
			DescribeTableTimeoutSeconds: 10,
		},
	}
}

func newTestMcp(t *testing.T, config Config, opener SessionOpener) *SnowflakeMcp {
	t.Helper()
	return New("", config, zerolog.Nop(), WithSessionOpener(opener))
}

func assertNoError(t *testing.T, output *QueryOutput) {
	t.Helper()
	if output.Error != "" {
		t.Fatalf("unexpected output error: %s", output.Error)
	}
}

func assertErrorContains(t *testing.T, output *QueryOutput, substr string) {
	t.Helper()
	if output.Error == "" {
		t.Fatalf("expected error containing %q, got none", substr)
	}
	if !strings.Contains(output.Error, substr) {
		t.Fatalf("expected error containing %q, got: %s", substr, output.Error)
	}
}
