// Package report renders a ready analysis into a paginated PDF. Every figure
// in the report comes from the persisted computed sections; nothing is
// recomputed at export time.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/sheetsightai/sheetsight/internal/models"
)

// Layout constants (A4 portrait, millimetres).
const (
	pageMargin  = 15
	contentW    = 180
	chartHeight = 60
	chartBarMax = 10
)

// Renderer produces PDF reports for ready analyses.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the PDF document for a ready analysis. A record in any
// other state yields ErrExportUnavailable.
func (r *Renderer) Render(analysis *models.Analysis, datasetName string) ([]byte, error) {
	if analysis == nil || !analysis.Ready() || analysis.Insights == nil {
		return nil, models.ErrExportUnavailable
	}

	ins := analysis.Insights

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	writeTitlePage(pdf, analysis, datasetName)

	if ins.SalesMetrics != nil {
		writeSalesMetrics(pdf, ins.SalesMetrics)
	}

	if ins.RevenueDistribution != nil {
		writeDistribution(pdf, ins.RevenueDistribution)
	}

	if ins.TopSalesReps != nil {
		writeSalesReps(pdf, ins.TopSalesReps)
	}

	if len(ins.TopProducts) > 0 {
		writeProducts(pdf, ins.TopProducts)
	}

	if len(ins.TopCustomers) > 0 {
		writeCustomers(pdf, ins.TopCustomers, ins.CustomerMetrics)
	}

	if len(ins.RevenueByCategory) > 0 {
		writeCategories(pdf, ins.RevenueByCategory)
	}

	if len(ins.RegionalPerformance) > 0 {
		writeRegions(pdf, ins.RegionalPerformance)
	}

	if len(ins.MonthlyTrends) > 0 {
		writeMonthlyTrends(pdf, ins.MonthlyTrends, ins.GrowthMetrics)
	}

	if len(ins.DailyPatterns) > 0 {
		writeDailyPatterns(pdf, ins.DailyPatterns)
	}

	if len(ins.Anomalies) > 0 {
		writeAnomalies(pdf, ins.Anomalies)
	}

	if ins.Narrative != nil {
		writeNarrative(pdf, ins.Narrative)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering report PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func writeTitlePage(pdf *fpdf.Fpdf, analysis *models.Analysis, datasetName string) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(contentW, 14, "Data Insight Report", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(contentW, 9, datasetName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(contentW, 7,
		"Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "C", false, 0, "")

	if analysis.Description != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, analysis.Description, "", "L", false)
	}

	if info := analysis.Insights.DatasetInfo; info != nil {
		pdf.Ln(6)
		keyValueTable(pdf, [][2]string{
			{"Rows", fmt.Sprintf("%d", info.TotalRows)},
			{"Columns", fmt.Sprintf("%d", info.TotalColumns)},
			{"Recognized columns", fmt.Sprintf("%d", info.ColumnsMapped)},
			{"Data completeness", fmt.Sprintf("%.1f%%", info.DataCompleteness)},
		})
	}
}

func writeSalesMetrics(pdf *fpdf.Fpdf, m *models.SalesMetrics) {
	sectionTitle(pdf, "Sales Overview")
	keyValueTable(pdf, [][2]string{
		{"Total revenue", money(m.TotalRevenue)},
		{"Total transactions", fmt.Sprintf("%d", m.TotalTransactions)},
		{"Average transaction", money(m.AverageTransaction)},
		{"Median transaction", money(m.MedianTransaction)},
		{"Revenue std deviation", money(m.RevenueStdDev)},
	})
}

func writeDistribution(pdf *fpdf.Fpdf, d *models.RevenueDistribution) {
	sectionTitle(pdf, "Revenue Distribution")
	keyValueTable(pdf, [][2]string{
		{"Minimum", money(d.Min)},
		{"First quartile", money(d.Q1)},
		{"Median", money(d.Median)},
		{"Mean", money(d.Mean)},
		{"Third quartile", money(d.Q3)},
		{"Maximum", money(d.Max)},
		{"Std deviation", money(d.StdDev)},
	})
}

func writeSalesReps(pdf *fpdf.Fpdf, reps *models.RepPerformance) {
	sectionTitle(pdf, "Sales Representatives")

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(contentW, 5, fmt.Sprintf("Best performer: %s (%s across %d transactions)",
		reps.BestPerformer.Name, money(reps.BestPerformer.TotalSales), reps.BestPerformer.Transactions),
		"", "L", false)
	pdf.Ln(2)

	rows := make([][]string, 0, len(reps.AllReps))
	labels := make([]string, 0, chartBarMax)
	values := make([]float64, 0, chartBarMax)

	for i, rep := range reps.AllReps {
		if i >= chartBarMax {
			break
		}

		rows = append(rows, []string{
			rep.Name, money(rep.TotalSales), fmt.Sprintf("%d", rep.Transactions), money(rep.AvgTransaction),
		})
		labels = append(labels, rep.Name)
		values = append(values, rep.TotalSales)
	}

	rankedTable(pdf, []string{"Representative", "Total sales", "Transactions", "Avg transaction"}, rows)
	barChart(pdf, "Total sales by representative", labels, values)
}

func writeProducts(pdf *fpdf.Fpdf, products []models.ProductStanding) {
	sectionTitle(pdf, "Top Products")

	rows := make([][]string, 0, len(products))
	labels := make([]string, 0, chartBarMax)
	values := make([]float64, 0, chartBarMax)

	for i, p := range products {
		if i >= chartBarMax {
			break
		}

		rows = append(rows, []string{
			p.Name, money(p.TotalRevenue), fmt.Sprintf("%d", p.UnitsSold), money(p.AvgRevenuePerSale),
		})
		labels = append(labels, p.Name)
		values = append(values, p.TotalRevenue)
	}

	rankedTable(pdf, []string{"Product", "Revenue", "Sales", "Avg per sale"}, rows)
	barChart(pdf, "Revenue by product", labels, values)
}

func writeCustomers(pdf *fpdf.Fpdf, customers []models.CustomerStanding, metrics *models.CustomerMetrics) {
	sectionTitle(pdf, "Top Customers")

	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.Name, money(c.TotalSpent), fmt.Sprintf("%d", c.Transactions), money(c.AvgTransaction),
		})
	}

	rankedTable(pdf, []string{"Customer", "Total spent", "Transactions", "Avg transaction"}, rows)

	if metrics != nil {
		pdf.Ln(2)
		keyValueTable(pdf, [][2]string{
			{"Total customers", fmt.Sprintf("%d", metrics.TotalCustomers)},
			{"Average customer value", money(metrics.AvgCustomerValue)},
			{"Top customer revenue share", fmt.Sprintf("%.1f%%", metrics.Concentration.TopCustomerRevenueShare)},
			{"Top 10% customers' share", fmt.Sprintf("%.1f%%", metrics.Concentration.Top10PercentRevenueShare)},
		})
	}
}

func writeCategories(pdf *fpdf.Fpdf, categories []models.CategoryRevenue) {
	sectionTitle(pdf, "Revenue by Category")

	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.Category, money(c.Revenue), fmt.Sprintf("%d", c.Transactions)})
	}

	rankedTable(pdf, []string{"Category", "Revenue", "Transactions"}, rows)
}

func writeRegions(pdf *fpdf.Fpdf, regions []models.RegionPerformance) {
	sectionTitle(pdf, "Regional Performance")

	rows := make([][]string, 0, len(regions))
	labels := make([]string, 0, chartBarMax)
	values := make([]float64, 0, chartBarMax)

	for i, r := range regions {
		rows = append(rows, []string{
			r.Region, money(r.TotalRevenue), fmt.Sprintf("%d", r.Transactions),
			fmt.Sprintf("%.1f%%", r.RevenueSharePercent),
		})

		if i < chartBarMax {
			labels = append(labels, r.Region)
			values = append(values, r.TotalRevenue)
		}
	}

	rankedTable(pdf, []string{"Region", "Revenue", "Transactions", "Share"}, rows)
	barChart(pdf, "Revenue by region", labels, values)
}

func writeMonthlyTrends(pdf *fpdf.Fpdf, trends []models.MonthlyRevenue, growth *models.GrowthMetrics) {
	sectionTitle(pdf, "Monthly Trends")

	rows := make([][]string, 0, len(trends))
	labels := make([]string, 0, len(trends))
	values := make([]float64, 0, len(trends))

	for _, m := range trends {
		rows = append(rows, []string{m.Month, money(m.Revenue), fmt.Sprintf("%d", m.Transactions)})
		labels = append(labels, m.Month)
		values = append(values, m.Revenue)
	}

	rankedTable(pdf, []string{"Month", "Revenue", "Transactions"}, rows)

	if growth != nil {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, fmt.Sprintf("Latest monthly growth: %+.1f%% (%s)",
			growth.MonthlyGrowthRate, growth.TrendDirection), "", "L", false)
	}

	barChart(pdf, "Revenue by month", labels, values)
}

func writeDailyPatterns(pdf *fpdf.Fpdf, days []models.DayPattern) {
	sectionTitle(pdf, "Day-of-Week Patterns")

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Day, money(d.TotalRevenue), money(d.AvgRevenue)})
	}

	rankedTable(pdf, []string{"Day", "Total revenue", "Avg revenue"}, rows)
}

func writeAnomalies(pdf *fpdf.Fpdf, anomalies []models.AnomalyFlag) {
	sectionTitle(pdf, "Detected Outliers")

	pdf.SetFont("Helvetica", "", 10)
	for _, a := range anomalies {
		pdf.MultiCell(contentW, 5, "- "+a.Description, "", "L", false)
	}
}

func writeNarrative(pdf *fpdf.Fpdf, n *models.Narrative) {
	writeBullets := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}

		sectionTitle(pdf, title)
		pdf.SetFont("Helvetica", "", 10)

		for _, line := range lines {
			pdf.MultiCell(contentW, 5, "- "+line, "", "L", false)
		}
	}

	writeBullets("Trends", n.Trends)
	writeBullets("Unusual Patterns", n.Anomalies)
	writeBullets("Predictions", n.Predictions)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	if pdf.GetY() > 240 {
		pdf.AddPage()
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(235, 238, 245)
	pdf.CellFormat(contentW, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(2)
}

func keyValueTable(pdf *fpdf.Fpdf, rows [][2]string) {
	pdf.SetFont("Helvetica", "", 10)

	for _, row := range rows {
		pdf.CellFormat(70, 6, row[0], "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-70, 6, row[1], "B", 1, "R", false, 0, "")
	}
}

func rankedTable(pdf *fpdf.Fpdf, headers []string, rows [][]string) {
	colW := contentW / float64(len(headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(245, 246, 250)

	for _, h := range headers {
		pdf.CellFormat(colW, 7, h, "1", 0, "L", true, 0, "")
	}

	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)

	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(colW, 6, cell, "1", 0, "L", false, 0, "")
		}

		pdf.Ln(-1)
	}
}

// barChart draws a simple labelled bar chart scaled to the largest value.
func barChart(pdf *fpdf.Fpdf, title string, labels []string, values []float64) {
	if len(values) == 0 {
		return
	}

	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	if max <= 0 {
		return
	}

	if pdf.GetY() > 260-chartHeight {
		pdf.AddPage()
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(contentW, 5, title, "", 1, "L", false, 0, "")

	baseY := pdf.GetY() + chartHeight
	barW := contentW / float64(len(values)) * 0.7
	gap := contentW / float64(len(values)) * 0.3

	pdf.SetFillColor(90, 120, 200)

	x := float64(pageMargin)
	for i, v := range values {
		h := chartHeight * (v / max) * 0.85
		pdf.Rect(x+gap/2, baseY-h, barW, h, "F")

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetXY(x, baseY)
		pdf.CellFormat(barW+gap, 4, clip(labels[i], 14), "", 0, "C", false, 0, "")

		x += barW + gap
	}

	pdf.SetY(baseY + 6)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-1]) + "..."
}
