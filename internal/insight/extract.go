// Package insight computes deterministic business statistics from a
// normalized table. Every number here is reproducible arithmetic over the
// rows; language-model narrative is layered on separately and never feeds
// back into these figures.
package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/sheetsightai/sheetsight/internal/models"
	"github.com/sheetsightai/sheetsight/internal/tabular"
)

// topN caps ranked sections (products, customers).
const topN = 10

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// Extract computes every insight section the column mappings support.
// Sections whose required concepts are unmapped stay nil. anomalyStdDevs is
// the multiplier k in the outlier threshold mean + k*stddev.
func Extract(t *tabular.Table, anomalyStdDevs float64) *models.Insights {
	mappings := tabular.MapColumns(t)
	out := &models.Insights{}

	revenueCol, hasRevenue := mappings[tabular.ConceptRevenue]

	if repCol, ok := mappings[tabular.ConceptSalesRep]; ok && hasRevenue {
		extractSales(t, repCol, revenueCol, out)
	}

	if hasRevenue {
		if productCol, ok := mappings[tabular.ConceptProduct]; ok {
			quantityCol := mappings[tabular.ConceptQuantity]
			out.TopProducts = extractProducts(t, productCol, revenueCol, quantityCol)
		}

		if categoryCol, ok := mappings[tabular.ConceptCategory]; ok {
			out.RevenueByCategory = extractCategories(t, categoryCol, revenueCol)
		}

		if customerCol, ok := mappings[tabular.ConceptCustomer]; ok {
			extractCustomers(t, customerCol, revenueCol, out)
		}

		if dateCol, ok := mappings[tabular.ConceptDate]; ok {
			extractTime(t, dateCol, revenueCol, out)
		}

		if regionCol, ok := mappings[tabular.ConceptRegion]; ok {
			out.RegionalPerformance = extractRegions(t, regionCol, revenueCol)
		}

		out.RevenueDistribution = extractDistribution(t, revenueCol)
		out.Anomalies = detectAnomalies(t, revenueCol, anomalyStdDevs)
	}

	out.DatasetInfo = extractDatasetInfo(t, mappings)

	return out
}

// groupStat is one group's revenue aggregate.
type groupStat struct {
	key    string
	values []float64
}

func (g groupStat) sum() float64  { return sum(g.values) }
func (g groupStat) mean() float64 { return mean(g.values) }
func (g groupStat) std() float64  { return sampleStdDev(g.values) }

// groupBy buckets the revenue column by a key column, skipping rows where
// either cell is missing or non-numeric, and returns groups ordered by total
// descending with ties broken by key ascending.
func groupBy(t *tabular.Table, keyCol, revenueCol string) []groupStat {
	buckets := make(map[string][]float64)

	for _, row := range t.Rows {
		key, ok := tabular.CellString(row, keyCol)
		if !ok {
			continue
		}

		v, ok := tabular.CellNumber(row, revenueCol)
		if !ok {
			continue
		}

		buckets[key] = append(buckets[key], v)
	}

	groups := make([]groupStat, 0, len(buckets))
	for key, values := range buckets {
		groups = append(groups, groupStat{key: key, values: values})
	}

	sort.Slice(groups, func(i, j int) bool {
		si, sj := groups[i].sum(), groups[j].sum()
		if si != sj {
			return si > sj
		}

		return groups[i].key < groups[j].key
	})

	return groups
}

// revenueValues collects the numeric cells of a column, optionally requiring
// a companion key column to also be present.
func revenueValues(t *tabular.Table, revenueCol, requiredCol string) []float64 {
	var values []float64

	for _, row := range t.Rows {
		if requiredCol != "" {
			if _, ok := tabular.CellString(row, requiredCol); !ok {
				continue
			}
		}

		if v, ok := tabular.CellNumber(row, revenueCol); ok {
			values = append(values, v)
		}
	}

	return values
}

func extractSales(t *tabular.Table, repCol, revenueCol string, out *models.Insights) {
	groups := groupBy(t, repCol, revenueCol)
	if len(groups) == 0 {
		return
	}

	standings := make([]models.RepStanding, len(groups))
	for i, g := range groups {
		standings[i] = models.RepStanding{
			Name:           g.key,
			TotalSales:     round2(g.sum()),
			Transactions:   len(g.values),
			AvgTransaction: round2(g.mean()),
			Consistency:    round2(g.std()),
		}
	}

	out.TopSalesReps = &models.RepPerformance{
		BestPerformer: standings[0],
		AllReps:       standings,
	}

	all := revenueValues(t, revenueCol, repCol)
	out.SalesMetrics = &models.SalesMetrics{
		TotalRevenue:       round2(sum(all)),
		AverageTransaction: round2(mean(all)),
		MedianTransaction:  round2(median(all)),
		TotalTransactions:  len(all),
		RevenueStdDev:      round2(sampleStdDev(all)),
	}
}

func extractProducts(t *tabular.Table, productCol, revenueCol, quantityCol string) []models.ProductStanding {
	groups := groupBy(t, productCol, revenueCol)
	if len(groups) == 0 {
		return nil
	}

	if len(groups) > topN {
		groups = groups[:topN]
	}

	standings := make([]models.ProductStanding, len(groups))
	for i, g := range groups {
		standings[i] = models.ProductStanding{
			Name:              g.key,
			TotalRevenue:      round2(g.sum()),
			UnitsSold:         len(g.values),
			AvgRevenuePerSale: round2(g.mean()),
		}

		if quantityCol != "" {
			q := productQuantity(t, productCol, quantityCol, g.key)
			standings[i].TotalQuantity = &q
		}
	}

	return standings
}

func productQuantity(t *tabular.Table, productCol, quantityCol, product string) float64 {
	var total float64

	for _, row := range t.Rows {
		key, ok := tabular.CellString(row, productCol)
		if !ok || key != product {
			continue
		}

		if v, ok := tabular.CellNumber(row, quantityCol); ok {
			total += v
		}
	}

	return round2(total)
}

func extractCategories(t *tabular.Table, categoryCol, revenueCol string) []models.CategoryRevenue {
	groups := groupBy(t, categoryCol, revenueCol)
	if len(groups) == 0 {
		return nil
	}

	out := make([]models.CategoryRevenue, len(groups))
	for i, g := range groups {
		out[i] = models.CategoryRevenue{
			Category:     g.key,
			Revenue:      round2(g.sum()),
			Transactions: len(g.values),
		}
	}

	return out
}

func extractCustomers(t *tabular.Table, customerCol, revenueCol string, out *models.Insights) {
	groups := groupBy(t, customerCol, revenueCol)
	if len(groups) == 0 {
		return
	}

	limit := len(groups)
	if limit > topN {
		limit = topN
	}

	standings := make([]models.CustomerStanding, limit)
	for i, g := range groups[:limit] {
		standings[i] = models.CustomerStanding{
			Name:                g.key,
			TotalSpent:          round2(g.sum()),
			Transactions:        len(g.values),
			AvgTransaction:      round2(g.mean()),
			SpendingConsistency: round2(g.std()),
		}
	}

	out.TopCustomers = standings

	totals := make([]float64, len(groups))
	for i, g := range groups {
		totals[i] = g.sum()
	}

	grandTotal := sum(totals)

	topDecile := len(groups) / 10
	if topDecile < 1 {
		topDecile = 1
	}

	concentration := models.CustomerConcentration{}
	if grandTotal != 0 {
		concentration.Top10PercentRevenueShare = round2(sum(totals[:topDecile]) / grandTotal * 100)
		concentration.TopCustomerRevenueShare = round2(totals[0] / grandTotal * 100)
	}

	out.CustomerMetrics = &models.CustomerMetrics{
		TotalCustomers:      len(groups),
		AvgCustomerValue:    round2(mean(totals)),
		MedianCustomerValue: round2(median(totals)),
		TopCustomerValue:    round2(totals[0]),
		Concentration:       concentration,
	}
}

func extractRegions(t *tabular.Table, regionCol, revenueCol string) []models.RegionPerformance {
	groups := groupBy(t, regionCol, revenueCol)
	if len(groups) == 0 {
		return nil
	}

	var grandTotal float64
	for _, g := range groups {
		grandTotal += g.sum()
	}

	out := make([]models.RegionPerformance, len(groups))
	for i, g := range groups {
		share := 0.0
		if grandTotal != 0 {
			share = round2(g.sum() / grandTotal * 100)
		}

		out[i] = models.RegionPerformance{
			Region:              g.key,
			TotalRevenue:        round2(g.sum()),
			Transactions:        len(g.values),
			AvgTransaction:      round2(g.mean()),
			RevenueSharePercent: share,
			Consistency:         round2(g.std()),
		}
	}

	return out
}

func extractTime(t *tabular.Table, dateCol, revenueCol string, out *models.Insights) {
	type dated struct {
		when    time.Time
		revenue float64
	}

	var points []dated

	for _, row := range t.Rows {
		raw, ok := tabular.CellString(row, dateCol)
		if !ok {
			continue
		}

		v, ok := tabular.CellNumber(row, revenueCol)
		if !ok {
			continue
		}

		when, ok := parseDate(raw)
		if !ok {
			continue
		}

		points = append(points, dated{when: when, revenue: v})
	}

	if len(points) == 0 {
		return
	}

	monthly := make(map[string][]float64)
	daily := make(map[string][]float64)

	for _, p := range points {
		monthKey := p.when.Format("2006-01")
		monthly[monthKey] = append(monthly[monthKey], p.revenue)

		dayKey := p.when.Weekday().String()
		daily[dayKey] = append(daily[dayKey], p.revenue)
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}

	sort.Strings(months)

	trends := make([]models.MonthlyRevenue, len(months))
	for i, m := range months {
		trends[i] = models.MonthlyRevenue{
			Month:        m,
			Revenue:      round2(sum(monthly[m])),
			Transactions: len(monthly[m]),
		}
	}

	out.MonthlyTrends = trends

	if len(trends) > 1 {
		latest := trends[len(trends)-1].Revenue
		previous := trends[len(trends)-2].Revenue

		if previous != 0 {
			rate := round2((latest - previous) / previous * 100)

			direction := "decreasing"
			if rate > 0 {
				direction = "increasing"
			}

			out.GrowthMetrics = &models.GrowthMetrics{
				MonthlyGrowthRate: rate,
				TrendDirection:    direction,
			}
		}
	}

	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}

	var patterns []models.DayPattern

	for _, wd := range weekdays {
		values, ok := daily[wd.String()]
		if !ok {
			continue
		}

		patterns = append(patterns, models.DayPattern{
			Day:          wd.String(),
			TotalRevenue: round2(sum(values)),
			AvgRevenue:   round2(mean(values)),
		})
	}

	out.DailyPatterns = patterns
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if when, err := time.Parse(layout, raw); err == nil {
			return when, true
		}
	}

	return time.Time{}, false
}

func extractDistribution(t *tabular.Table, revenueCol string) *models.RevenueDistribution {
	values := revenueValues(t, revenueCol, "")
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}

		if v > hi {
			hi = v
		}
	}

	return &models.RevenueDistribution{
		Min:    lo,
		Max:    hi,
		Mean:   round2(mean(values)),
		Median: round2(median(values)),
		StdDev: round2(sampleStdDev(values)),
		Q1:     round2(quantile(values, 0.25)),
		Q3:     round2(quantile(values, 0.75)),
	}
}

// detectAnomalies flags revenue cells exceeding mean + k*stddev. Row indexes
// are zero-based positions in the normalized table.
func detectAnomalies(t *tabular.Table, revenueCol string, stdDevs float64) []models.AnomalyFlag {
	values := revenueValues(t, revenueCol, "")
	if len(values) < 3 {
		return nil
	}

	sd := sampleStdDev(values)
	if sd == 0 {
		return nil
	}

	threshold := mean(values) + stdDevs*sd

	var flags []models.AnomalyFlag

	for i, row := range t.Rows {
		v, ok := tabular.CellNumber(row, revenueCol)
		if !ok || v <= threshold {
			continue
		}

		flags = append(flags, models.AnomalyFlag{
			Row:       i,
			Column:    revenueCol,
			Value:     v,
			Threshold: round2(threshold),
			Description: fmt.Sprintf("%s value %.2f exceeds %.2f (mean + %.1f std devs)",
				revenueCol, v, threshold, stdDevs),
		})
	}

	return flags
}

func extractDatasetInfo(t *tabular.Table, mappings map[tabular.Concept]string) *models.DatasetInfo {
	var filled int

	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if _, ok := tabular.CellString(row, col); ok {
				filled++
			}
		}
	}

	totalCells := len(t.Rows) * len(t.Columns)

	completeness := 0.0
	if totalCells > 0 {
		completeness = round2(float64(filled) / float64(totalCells) * 100)
	}

	return &models.DatasetInfo{
		TotalRows:        len(t.Rows),
		TotalColumns:     len(t.Columns),
		ColumnsMapped:    len(mappings),
		DataCompleteness: completeness,
	}
}
