// Package reports groups asset items into subtotals and renders them as
// spreadsheets and Word documents.
package reports

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assetflow/models"
)

// UnknownLabel names groups whose key is empty or cannot be resolved.
const UnknownLabel = "Unknown"

type Group struct {
	Key        string           `json:"key"`
	Group      string           `json:"group"`
	Count      int              `json:"count"`
	Subtotal   float64          `json:"subtotal"`
	Percentage float64          `json:"percentage"`
	Rows       []models.ItemRow `json:"rows"`
}

type Report struct {
	GroupBy    string  `json:"-"`
	Data       []Group `json:"data"`
	GrandTotal float64 `json:"grandTotal"`
}

// Title is the heading used in exported documents.
func (r Report) Title() string {
	return fmt.Sprintf("Asset Report - Grouped by %s", r.GroupBy)
}

// GroupKey returns the partition key of a row for the given grouping.
func GroupKey(row models.ItemRow, groupBy string) string {
	switch groupBy {
	case models.GroupByDepartment:
		if row.DepartmentID.IsZero() {
			return ""
		}
		return row.DepartmentID.Hex()
	case models.GroupByItem:
		return row.Item.ItemName
	case models.GroupByVendor:
		return row.Item.VendorName
	}
	return ""
}

// Aggregate partitions rows by the grouping key. names maps department ids to
// names and is only consulted for department grouping. Every row lands in
// exactly one group and the grand total equals the sum of the subtotals.
func Aggregate(rows []models.ItemRow, groupBy string, names map[string]string) Report {
	type acc struct {
		group    *Group
		subtotal decimal.Decimal
	}
	byKey := make(map[string]*acc)
	var order []string

	for _, row := range rows {
		key := GroupKey(row, groupBy)
		a, ok := byKey[key]
		if !ok {
			a = &acc{group: &Group{Key: key, Group: label(key, groupBy, names)}}
			byKey[key] = a
			order = append(order, key)
		}
		a.group.Count++
		a.group.Rows = append(a.group.Rows, row)
		a.subtotal = a.subtotal.Add(decimal.NewFromFloat(row.Item.TotalAmount))
	}

	grand := decimal.Zero
	groups := make([]Group, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		sub := a.subtotal.Round(2)
		a.group.Subtotal = sub.InexactFloat64()
		grand = grand.Add(sub)
		groups = append(groups, *a.group)
	}
	grand = grand.Round(2)

	for i := range groups {
		groups[i].Percentage = Percentage(groups[i].Subtotal, grand.InexactFloat64())
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Subtotal != b.Subtotal {
			return a.Subtotal > b.Subtotal
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Key < b.Key
	})

	return Report{GroupBy: groupBy, Data: groups, GrandTotal: grand.InexactFloat64()}
}

// Percentage is subtotal/grandTotal*100 rounded to 2 places, or 0 when the grand total is 0.
func Percentage(subtotal, grandTotal float64) float64 {
	if grandTotal == 0 {
		return 0
	}
	return decimal.NewFromFloat(subtotal).
		Div(decimal.NewFromFloat(grandTotal)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

func label(key, groupBy string, names map[string]string) string {
	if key == "" {
		return UnknownLabel
	}
	if groupBy == models.GroupByDepartment {
		if name, ok := names[key]; ok && name != "" {
			return name
		}
		return UnknownLabel
	}
	return key
}

// DepartmentIDs returns the distinct department ids referenced by rows.
func DepartmentIDs(rows []models.ItemRow) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, row := range rows {
		if row.DepartmentID.IsZero() {
			continue
		}
		if _, ok := seen[row.DepartmentID]; !ok {
			seen[row.DepartmentID] = struct{}{}
			ids = append(ids, row.DepartmentID)
		}
	}
	return ids
}
