package sfmcp

import (
	"context"
	"strings"
	"testing"
)

func TestInsightsMemoEmpty(t *testing.T) {
	t.Parallel()
	p := newTestMcp(t, testConfig(), &countingOpener{sess: &fakeSession{}})
	if got := p.InsightsMemo(); got != "No insights recorded yet." {
		t.Fatalf("unexpected empty memo: %q", got)
	}
}

func TestAppendInsightAccumulates(t *testing.T) {
	t.Parallel()
	p := newTestMcp(t, testConfig(), &countingOpener{sess: &fakeSession{}})

	msg, err := p.AppendInsight(context.Background(), AppendInsightInput{Insight: "orders spike on Mondays"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Insight added to memo" {
		t.Fatalf("unexpected confirmation: %q", msg)
	}
	if _, err := p.AppendInsight(context.Background(), AppendInsightInput{Insight: "churn correlates with region"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	memo := p.InsightsMemo()
	if !strings.Contains(memo, "- orders spike on Mondays") {
		t.Fatalf("first insight missing from memo: %q", memo)
	}
	if !strings.Contains(memo, "- churn correlates with region") {
		t.Fatalf("second insight missing from memo: %q", memo)
	}
	if strings.Index(memo, "orders spike") > strings.Index(memo, "churn correlates") {
		t.Fatal("insights out of order")
	}
}

func TestAppendInsightRejectsEmpty(t *testing.T) {
	t.Parallel()
	p := newTestMcp(t, testConfig(), &countingOpener{sess: &fakeSession{}})
	if _, err := p.AppendInsight(context.Background(), AppendInsightInput{Insight: "   "}); err == nil {
		t.Fatal("expected error for blank insight")
	}
}
