package sfmcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// insightMemo accumulates agent-discovered insights for the session. The
// memo is pull-only: clients read it through the memo://insights resource,
// the server never pushes updates.
type insightMemo struct {
	mu       sync.Mutex
	insights []string
}

func (m *insightMemo) append(insight string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = append(m.insights, insight)
}

func (m *insightMemo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.insights)
}

// render produces the memo document from the insights recorded so far.
func (m *insightMemo) render() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.insights) == 0 {
		return "No insights recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("Data Intelligence Memo\n")
	sb.WriteString("======================\n\n")
	sb.WriteString("Key insights discovered so far:\n\n")
	for _, insight := range m.insights {
		sb.WriteString("- ")
		sb.WriteString(insight)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// AppendInsight records a data insight in the session memo.
func (p *SnowflakeMcp) AppendInsight(ctx context.Context, input AppendInsightInput) (string, error) {
	if strings.TrimSpace(input.Insight) == "" {
		return "", fmt.Errorf("missing required 'insight' parameter")
	}
	p.insights.append(input.Insight)
	p.logger.Info().
		Int("insight_count", p.insights.len()).
		Msg("insight appended")
	return "Insight added to memo", nil
}

// InsightsMemo renders the current memo document.
func (p *SnowflakeMcp) InsightsMemo() string {
	return p.insights.render()
}
