package service

import (
	"strings"
	"testing"

	"github.com/sheetsightai/sheetsight/internal/models"
)

func TestTruncateText(t *testing.T) {
	short := "short text"
	if got := truncateText(short, 100); got != short {
		t.Errorf("short text should pass through, got %q", got)
	}

	long := strings.Repeat("line of sample data\n", 200)

	got := truncateText(long, 1500)
	if len(got) > 1500+len("\n... (truncated for analysis)") {
		t.Errorf("truncated length = %d", len(got))
	}

	if !strings.HasSuffix(got, "... (truncated for analysis)") {
		t.Errorf("missing truncation marker: %q", got[len(got)-50:])
	}

	// Cut lands on a line boundary when one is close enough.
	body := strings.TrimSuffix(got, "\n... (truncated for analysis)")
	if !strings.HasSuffix(body, "line of sample data") {
		t.Errorf("expected line-boundary cut, got %q", body[len(body)-30:])
	}
}

func TestSubstitutePlaceholders(t *testing.T) {
	subs := map[string]string{
		"total_revenue":  "$500.00",
		"best_performer": "Alice",
	}

	lines := []string{
		"Revenue hit {{total_revenue}} thanks to {{best_performer}}",
		"{{unknown_token}} stays as-is",
		"no tokens here",
	}

	got := substitutePlaceholders(lines, subs)

	if got[0] != "Revenue hit $500.00 thanks to Alice" {
		t.Errorf("line 0 = %q", got[0])
	}

	if got[1] != "{{unknown_token}} stays as-is" {
		t.Errorf("line 1 = %q", got[1])
	}

	if got[2] != "no tokens here" {
		t.Errorf("line 2 = %q", got[2])
	}
}

func TestInsightContext_SectionsAppearWhenPresent(t *testing.T) {
	a := &models.Analysis{
		Description: "test sheet",
		Insights: &models.Insights{
			TopSalesReps: &models.RepPerformance{
				BestPerformer: models.RepStanding{Name: "Alice", TotalSales: 300, Transactions: 2},
				AllReps: []models.RepStanding{
					{Name: "Alice", TotalSales: 300},
					{Name: "Bob", TotalSales: 50},
				},
			},
			GrowthMetrics: &models.GrowthMetrics{MonthlyGrowthRate: 12.5},
			Narrative:     &models.Narrative{Trends: []string{"up and to the right"}},
		},
	}

	ctx := insightContext(a)

	for _, want := range []string{
		"Spreadsheet Description: test sheet",
		"Best Sales Rep: Alice with $300.00 in total sales (2 transactions)",
		"Alice: $300.00, Bob: $50.00",
		"Monthly Growth Rate: +12.5%",
		"Identified Trends: up and to the right",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}

	if strings.Contains(ctx, "Top Products") {
		t.Error("absent sections must not appear")
	}
}

func TestInsightContext_NilInsights(t *testing.T) {
	a := &models.Analysis{Description: "bare"}

	if got := insightContext(a); got != "Spreadsheet Description: bare" {
		t.Errorf("got %q", got)
	}
}

func TestFormatWindow(t *testing.T) {
	if got := formatWindow(nil); got != "No previous conversation." {
		t.Errorf("empty window = %q", got)
	}

	turns := []models.ChatTurn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}

	got := formatWindow(turns)
	if got != "Q: q1\nA: a1\nQ: q2\nA: a2" {
		t.Errorf("window = %q", got)
	}
}

func TestKeyedLocks(t *testing.T) {
	l := newKeyedTryLock()

	if !l.TryLock("a") {
		t.Fatal("fresh key should lock")
	}

	if l.TryLock("a") {
		t.Fatal("held key should not re-lock")
	}

	if !l.TryLock("b") {
		t.Fatal("other keys are independent")
	}

	l.Unlock("a")

	if !l.TryLock("a") {
		t.Fatal("released key should lock again")
	}
}
