package google

import (
	"fmt"
	"strings"
	"time"

	"spese-insights/internal/core"
)

var requiredHeaders = []string{"Owner", "Date", "Description", "Amount", "Category"}

// parseExpenses converts a values matrix (as returned by the Sheets API) into
// expenses. Rows that fail to parse or validate are counted in skipped.
func parseExpenses(values [][]interface{}) (items []core.Expense, skipped int, err error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	var missing []string
	for _, h := range requiredHeaders {
		idx := indexOf(headers, h)
		if idx == -1 {
			missing = append(missing, h)
		}
		cols[h] = idx
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected expenses header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	colSub := indexOf(headers, "Subcategory")

	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		day, ok := parseDay(safeGet(row, cols["Date"]))
		if !ok {
			skipped++
			continue
		}
		cents, ok := parseAmountToCents(safeGet(row, cols["Amount"]))
		if !ok {
			skipped++
			continue
		}
		e := core.Expense{
			ID:          fmt.Sprintf("row:%d", i+1),
			OwnerID:     safeGet(row, cols["Owner"]),
			Date:        core.Date{Time: day},
			Description: safeGet(row, cols["Description"]),
			Amount:      core.Money{Cents: cents},
			Category:    safeGet(row, cols["Category"]),
			Subcategory: safeGet(row, colSub),
		}
		if e.Validate() != nil {
			skipped++
			continue
		}
		items = append(items, e)
	}
	return items, skipped, nil
}

// parseDay returns the calendar day written in the cell at midnight UTC.
// Time of day and offset of RFC 3339 cells are dropped.
func parseDay(s string) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseAmountToCents(s string) (int64, bool) {
	cents, err := core.ParseDecimalToCents(s)
	return cents, err == nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
