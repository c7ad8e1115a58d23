package tabular

import (
	"regexp"
	"strings"
)

// Concept identifies a business meaning a column can carry.
type Concept string

const (
	ConceptSalesRep Concept = "sales_rep"
	ConceptRevenue  Concept = "revenue"
	ConceptProduct  Concept = "product"
	ConceptCategory Concept = "category"
	ConceptQuantity Concept = "quantity"
	ConceptCustomer Concept = "customer"
	ConceptDate     Concept = "date"
	ConceptRegion   Concept = "region"
)

// matchThreshold is the minimum score for a column to bind to a concept.
const matchThreshold = 0.6

// numericSampleRatio is the fraction of sampled cells that must parse as
// numbers for a column to count as numeric.
const numericSampleRatio = 0.6

// conceptPatterns lists, per concept, the word sets a column name can match.
// Ordering within a concept does not matter; the highest-scoring pattern wins.
var conceptPatterns = map[Concept][][]string{
	ConceptSalesRep: {
		{"sales", "rep"}, {"sales", "person"}, {"salesperson"},
		{"rep"}, {"agent"}, {"sales", "agent"}, {"account", "manager"},
	},
	ConceptRevenue: {
		{"total", "price"}, {"total", "sale"}, {"total", "sales"},
		{"total", "amount"}, {"total", "cost"}, {"total", "value"},
		{"revenue"}, {"sales", "amount"}, {"amount"}, {"price", "total"},
		{"sale", "total"}, {"gross", "sales"}, {"net", "sales"},
	},
	ConceptProduct: {
		{"product"}, {"item"}, {"merchandise"}, {"sku"},
		{"product", "name"}, {"item", "name"},
	},
	ConceptCategory: {
		{"category"}, {"product", "category"}, {"item", "category"},
		{"type"}, {"product", "type"}, {"class"}, {"group"},
	},
	ConceptQuantity: {
		{"quantity"}, {"qty"}, {"units"}, {"amount", "sold"},
		{"units", "sold"}, {"count"}, {"volume"},
	},
	ConceptCustomer: {
		{"customer"}, {"client"}, {"buyer"}, {"customer", "name"},
		{"client", "name"}, {"account"}, {"purchaser"},
	},
	ConceptDate: {
		{"date"}, {"time"}, {"timestamp"}, {"order", "date"},
		{"sale", "date"}, {"transaction", "date"}, {"created"},
	},
	ConceptRegion: {
		{"region"}, {"location"}, {"state"}, {"country"},
		{"city"}, {"territory"}, {"area"}, {"zone"}, {"market"},
	},
}

var separatorRE = regexp.MustCompile(`[_\-\s]+`)

// MapColumns binds the table's columns to business concepts by fuzzy name
// matching. A concept is absent from the result when no column clears the
// threshold. Revenue and quantity additionally require mostly-numeric values.
func MapColumns(t *Table) map[Concept]string {
	mappings := make(map[Concept]string)

	for concept, patterns := range conceptPatterns {
		var bestMatch string

		bestScore := 0.0

		for _, col := range t.Columns {
			for _, pattern := range patterns {
				score := matchScore(col, pattern)
				if score <= bestScore || score <= matchThreshold {
					continue
				}

				if (concept == ConceptRevenue || concept == ConceptQuantity) && !columnIsNumeric(t, col) {
					continue
				}

				bestMatch = col
				bestScore = score
			}
		}

		if bestMatch != "" {
			mappings[concept] = bestMatch
		}
	}

	return mappings
}

// matchScore rates how well a column name matches a pattern's word set,
// in [0, 1]. Full word hits count once, substring hits count half, and an
// exact name match earns a bonus.
func matchScore(columnName string, pattern []string) float64 {
	normalized := strings.TrimSpace(separatorRE.ReplaceAllString(strings.ToLower(columnName), " "))
	parts := strings.Fields(normalized)

	var wordsFound, matchedLength, totalPatternLength float64

	for _, word := range pattern {
		totalPatternLength += float64(len(word))

		switch {
		case strings.Contains(normalized, word):
			wordsFound++

			matchedLength += float64(len(word))
		case anyContains(parts, word):
			wordsFound += 0.5
			matchedLength += float64(len(word)) * 0.5
		}
	}

	if wordsFound == 0 {
		return 0
	}

	wordCoverage := wordsFound / float64(len(pattern))

	denom := float64(len(normalized))
	if totalPatternLength > denom {
		denom = totalPatternLength
	}

	lengthRatio := matchedLength / denom

	exactBonus := 0.0
	if strings.Join(pattern, " ") == normalized {
		exactBonus = 1.0
	}

	score := wordCoverage*0.7 + lengthRatio*0.2 + exactBonus*0.1
	if score > 1 {
		score = 1
	}

	return score
}

func anyContains(parts []string, word string) bool {
	for _, part := range parts {
		if strings.Contains(part, word) {
			return true
		}
	}

	return false
}

// columnIsNumeric samples the column's non-empty cells and reports whether
// enough of them parse as numbers.
func columnIsNumeric(t *Table, col string) bool {
	var seen, numeric int

	for _, row := range t.Rows {
		if _, ok := CellString(row, col); !ok {
			continue
		}

		seen++

		if _, ok := CellNumber(row, col); ok {
			numeric++
		}
	}

	if seen == 0 {
		return false
	}

	return float64(numeric)/float64(seen) >= numericSampleRatio
}
