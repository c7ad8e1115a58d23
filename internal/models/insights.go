package models

import "encoding/json"

// Insights is the structured insight payload of a ready analysis. Sections are
// independently optional: a nil section means "not applicable to this dataset",
// never an error. Computed sections carry exact aggregates; Narrative carries
// model-generated text and never overrides a computed number. Unrecognized
// sections round-trip through Extra.
type Insights struct {
	DatasetInfo         *DatasetInfo               `json:"dataset_info,omitempty"`
	SalesMetrics        *SalesMetrics              `json:"sales_metrics,omitempty"`
	RevenueDistribution *RevenueDistribution       `json:"revenue_distribution,omitempty"`
	TopSalesReps        *RepPerformance            `json:"top_sales_reps,omitempty"`
	TopCustomers        []CustomerStanding         `json:"top_customers,omitempty"`
	CustomerMetrics     *CustomerMetrics           `json:"customer_metrics,omitempty"`
	TopProducts         []ProductStanding          `json:"top_products,omitempty"`
	RevenueByCategory   []CategoryRevenue          `json:"revenue_by_category,omitempty"`
	RegionalPerformance []RegionPerformance        `json:"regional_performance,omitempty"`
	MonthlyTrends       []MonthlyRevenue           `json:"monthly_trends,omitempty"`
	GrowthMetrics       *GrowthMetrics             `json:"growth_metrics,omitempty"`
	DailyPatterns       []DayPattern               `json:"daily_patterns,omitempty"`
	Anomalies           []AnomalyFlag              `json:"anomalies_detected,omitempty"`
	Narrative           *Narrative                 `json:"narrative,omitempty"`
	Extra               map[string]json.RawMessage `json:"extra,omitempty"`
}

// DatasetInfo summarizes shape and mapping coverage.
type DatasetInfo struct {
	TotalRows        int     `json:"total_rows"`
	TotalColumns     int     `json:"total_columns"`
	ColumnsMapped    int     `json:"columns_mapped"`
	DataCompleteness float64 `json:"data_completeness"`
}

// SalesMetrics holds overall revenue aggregates.
type SalesMetrics struct {
	TotalRevenue       float64 `json:"total_revenue"`
	AverageTransaction float64 `json:"average_transaction"`
	MedianTransaction  float64 `json:"median_transaction"`
	TotalTransactions  int     `json:"total_transactions"`
	RevenueStdDev      float64 `json:"revenue_std_dev"`
}

// RevenueDistribution describes the revenue column's distribution.
type RevenueDistribution struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// RepStanding is one sales representative's aggregate performance.
type RepStanding struct {
	Name           string  `json:"name"`
	TotalSales     float64 `json:"total_sales"`
	Transactions   int     `json:"transactions"`
	AvgTransaction float64 `json:"avg_transaction"`
	Consistency    float64 `json:"consistency"`
}

// RepPerformance ranks sales reps by total revenue.
type RepPerformance struct {
	BestPerformer RepStanding   `json:"best_performer"`
	AllReps       []RepStanding `json:"all_reps"`
}

// CustomerStanding is one customer's aggregate spend.
type CustomerStanding struct {
	Name                string  `json:"name"`
	TotalSpent          float64 `json:"total_spent"`
	Transactions        int     `json:"transactions"`
	AvgTransaction      float64 `json:"avg_transaction"`
	SpendingConsistency float64 `json:"spending_consistency"`
}

// CustomerConcentration captures revenue concentration across customers.
type CustomerConcentration struct {
	Top10PercentRevenueShare float64 `json:"top_10_percent_revenue_share"`
	TopCustomerRevenueShare  float64 `json:"top_customer_revenue_share"`
}

// CustomerMetrics summarizes the customer base.
type CustomerMetrics struct {
	TotalCustomers      int                   `json:"total_customers"`
	AvgCustomerValue    float64               `json:"avg_customer_value"`
	MedianCustomerValue float64               `json:"median_customer_value"`
	TopCustomerValue    float64               `json:"top_customer_value"`
	Concentration       CustomerConcentration `json:"customer_concentration"`
}

// ProductStanding is one product's aggregate revenue.
type ProductStanding struct {
	Name              string   `json:"name"`
	TotalRevenue      float64  `json:"total_revenue"`
	UnitsSold         int      `json:"units_sold"`
	AvgRevenuePerSale float64  `json:"avg_revenue_per_sale"`
	TotalQuantity     *float64 `json:"total_quantity,omitempty"`
}

// CategoryRevenue is aggregate revenue for one product category.
type CategoryRevenue struct {
	Category     string  `json:"category"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// RegionPerformance is one region's aggregate revenue and share.
type RegionPerformance struct {
	Region              string  `json:"region"`
	TotalRevenue        float64 `json:"total_revenue"`
	Transactions        int     `json:"transactions"`
	AvgTransaction      float64 `json:"avg_transaction"`
	RevenueSharePercent float64 `json:"revenue_share_percent"`
	Consistency         float64 `json:"consistency"`
}

// MonthlyRevenue is revenue bucketed by calendar month ("2006-01").
type MonthlyRevenue struct {
	Month        string  `json:"month"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// GrowthMetrics is the latest period-over-period revenue delta.
type GrowthMetrics struct {
	MonthlyGrowthRate float64 `json:"monthly_growth_rate"`
	TrendDirection    string  `json:"trend_direction"`
}

// DayPattern is revenue aggregated by day of week.
type DayPattern struct {
	Day          string  `json:"day"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// AnomalyFlag marks a single value exceeding the deterministic threshold
// (column mean + multiplier*stddev).
type AnomalyFlag struct {
	Row         int     `json:"row"`
	Column      string  `json:"column"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

// Narrative holds model-generated insight text. Advisory only: the merge step
// substitutes computed values into these strings, never the reverse.
type Narrative struct {
	Trends      []string `json:"trends,omitempty"`
	Anomalies   []string `json:"anomalies,omitempty"`
	Predictions []string `json:"predictions,omitempty"`
}
