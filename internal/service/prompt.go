package service

import (
	"fmt"
	"strings"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// Prompt input bounds. Raw samples and descriptions are clipped before they
// reach the model to stay inside its context budget.
const (
	maxRawTextChars     = 1500
	maxDescriptionChars = 500
	promptSampleChars   = 800
)

// truncateText clips text to maxChars, preferring to cut at a line boundary
// when that keeps at least 80% of the budget.
func truncateText(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]

	if idx := strings.LastIndexByte(truncated, '\n'); idx > maxChars*8/10 {
		truncated = truncated[:idx]
	}

	return truncated + "\n... (truncated for analysis)"
}

// clipSample bounds the data sample embedded in an individual prompt.
func clipSample(rawText string) string {
	if len(rawText) > promptSampleChars {
		return rawText[:promptSampleChars]
	}

	return rawText
}

func trendsPrompt(rawText, description string) string {
	return fmt.Sprintf(`Analyze the following spreadsheet data to identify 2-3 key business trends.

Data Sample:
%s

Description:
%s

Return a JSON object with a 'trends' key containing a list of trend descriptions.
Example: {"trends": ["Sales increased by 15%% month-over-month", "Technology products show highest growth"]}`,
		clipSample(rawText), description)
}

func anomaliesPrompt(rawText, description string) string {
	return fmt.Sprintf(`Analyze the following data to identify 1-2 anomalies or unusual patterns.

Data Sample:
%s

Description:
%s

Return a JSON object with an 'anomalies' key containing a list of anomaly descriptions.
Example: {"anomalies": ["Unusually high returns in March", "Spike in weekend sales"]}`,
		clipSample(rawText), description)
}

func predictionsPrompt(rawText, description string) string {
	return fmt.Sprintf(`Based on the following data, generate 1-2 business predictions or recommendations.

Data Sample:
%s

Description:
%s

Return a JSON object with a 'predictions' key containing a list of predictions.
Example: {"predictions": ["Expect 10%% growth next quarter", "Consider expanding top-performing regions"]}`,
		clipSample(rawText), description)
}

// insightContext renders the computed sections as compact summary lines for
// the chat prompt. Only sections present on the analysis appear.
func insightContext(a *models.Analysis) string {
	parts := []string{"Spreadsheet Description: " + a.Description}

	ins := a.Insights
	if ins == nil {
		return parts[0]
	}

	if ins.TopSalesReps != nil {
		best := ins.TopSalesReps.BestPerformer
		parts = append(parts, fmt.Sprintf("Best Sales Rep: %s with $%.2f in total sales (%d transactions)",
			best.Name, best.TotalSales, best.Transactions))

		var reps []string
		for _, rep := range head(ins.TopSalesReps.AllReps, 5) {
			reps = append(reps, fmt.Sprintf("%s: $%.2f", rep.Name, rep.TotalSales))
		}

		parts = append(parts, "All Sales Reps Performance: "+strings.Join(reps, ", "))
	}

	if len(ins.TopProducts) > 0 {
		var products []string
		for _, p := range head(ins.TopProducts, 5) {
			products = append(products, fmt.Sprintf("%s: $%.2f", p.Name, p.TotalRevenue))
		}

		parts = append(parts, "Top Products: "+strings.Join(products, ", "))
	}

	if len(ins.TopCustomers) > 0 {
		var customers []string
		for _, c := range head(ins.TopCustomers, 5) {
			customers = append(customers, fmt.Sprintf("%s: $%.2f", c.Name, c.TotalSpent))
		}

		parts = append(parts, "Top Customers: "+strings.Join(customers, ", "))
	}

	if len(ins.RevenueByCategory) > 0 {
		var categories []string
		for _, c := range head(ins.RevenueByCategory, 5) {
			categories = append(categories, fmt.Sprintf("%s: $%.2f", c.Category, c.Revenue))
		}

		parts = append(parts, "Revenue by Category: "+strings.Join(categories, ", "))
	}

	if len(ins.RegionalPerformance) > 0 {
		var regions []string
		for _, r := range head(ins.RegionalPerformance, 5) {
			regions = append(regions, fmt.Sprintf("%s: $%.2f", r.Region, r.TotalRevenue))
		}

		parts = append(parts, "Regional Performance: "+strings.Join(regions, ", "))
	}

	if ins.SalesMetrics != nil {
		parts = append(parts,
			fmt.Sprintf("Total Revenue: $%.2f", ins.SalesMetrics.TotalRevenue),
			fmt.Sprintf("Average Transaction: $%.2f", ins.SalesMetrics.AverageTransaction),
			fmt.Sprintf("Total Transactions: %d", ins.SalesMetrics.TotalTransactions))
	}

	if len(ins.MonthlyTrends) > 0 {
		recent := ins.MonthlyTrends
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}

		var months []string
		for _, m := range recent {
			months = append(months, fmt.Sprintf("%s: $%.2f", m.Month, m.Revenue))
		}

		parts = append(parts, "Recent Monthly Revenue: "+strings.Join(months, ", "))
	}

	if ins.GrowthMetrics != nil {
		parts = append(parts, fmt.Sprintf("Monthly Growth Rate: %+.1f%%", ins.GrowthMetrics.MonthlyGrowthRate))
	}

	if ins.Narrative != nil {
		if len(ins.Narrative.Trends) > 0 {
			parts = append(parts, "Identified Trends: "+strings.Join(ins.Narrative.Trends, ", "))
		}

		if len(ins.Narrative.Anomalies) > 0 {
			parts = append(parts, "Anomalies: "+strings.Join(ins.Narrative.Anomalies, ", "))
		}

		if len(ins.Narrative.Predictions) > 0 {
			parts = append(parts, "Predictions: "+strings.Join(ins.Narrative.Predictions, ", "))
		}
	}

	return strings.Join(parts, "\n\n")
}

// formatWindow renders prior turns for the chat prompt, oldest first.
func formatWindow(turns []models.ChatTurn) string {
	if len(turns) == 0 {
		return "No previous conversation."
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, "Q: "+t.Question+"\nA: "+t.Answer)
	}

	return strings.Join(lines, "\n")
}

// chatPrompt assembles the full prompt for one question.
func chatPrompt(a *models.Analysis, window []models.ChatTurn, question string) string {
	return fmt.Sprintf(`You are an AI business analyst. Answer the user's question using the provided computed data and insights.
Give direct, specific answers with actual numbers when available. Don't suggest how to calculate things - use the computed results.

Available Data:
%s

Previous Conversation:
%s

Question: %s

Instructions:
- Use specific numbers and names from the computed data
- Be concise and direct
- If the exact answer isn't in the data, say so and provide the closest relevant information
- Format currency values clearly (e.g., $1,234.56)
- Don't suggest calculations or code - use the provided computed results`,
		insightContext(a), formatWindow(window), question)
}

// substitutions maps placeholder tokens to computed values for narrative
// strings. Narrative text can reference computed figures via {{token}} without
// the model having to reproduce exact numbers.
func substitutions(ins *models.Insights) map[string]string {
	subs := make(map[string]string)

	if ins.SalesMetrics != nil {
		subs["total_revenue"] = fmt.Sprintf("$%.2f", ins.SalesMetrics.TotalRevenue)
		subs["average_transaction"] = fmt.Sprintf("$%.2f", ins.SalesMetrics.AverageTransaction)
		subs["total_transactions"] = fmt.Sprintf("%d", ins.SalesMetrics.TotalTransactions)
	}

	if ins.TopSalesReps != nil {
		subs["best_performer"] = ins.TopSalesReps.BestPerformer.Name
	}

	if len(ins.RegionalPerformance) > 0 {
		subs["top_region"] = ins.RegionalPerformance[0].Region
	}

	if len(ins.TopProducts) > 0 {
		subs["top_product"] = ins.TopProducts[0].Name
	}

	if len(ins.TopCustomers) > 0 {
		subs["top_customer"] = ins.TopCustomers[0].Name
	}

	if ins.GrowthMetrics != nil {
		subs["monthly_growth_rate"] = fmt.Sprintf("%+.1f%%", ins.GrowthMetrics.MonthlyGrowthRate)
		subs["trend_direction"] = ins.GrowthMetrics.TrendDirection
	}

	return subs
}

// substitutePlaceholders replaces {{token}} occurrences in narrative lines
// with computed values. Unknown tokens are left untouched.
func substitutePlaceholders(lines []string, subs map[string]string) []string {
	if len(lines) == 0 || len(subs) == 0 {
		return lines
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		for token, value := range subs {
			line = strings.ReplaceAll(line, "{{"+token+"}}", value)
		}

		out[i] = line
	}

	return out
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}

	return items
}
