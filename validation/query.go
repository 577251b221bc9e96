package validation

import (
	"net/url"
	"strconv"
	"strings"

	"assetflow/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

// ValidateAssetQuery checks the list filters and pagination of GET /assets.
func ValidateAssetQuery(v url.Values) (models.AssetQuery, error) {
	var errs Errors
	q := models.AssetQuery{
		Subcategory: strings.TrimSpace(v.Get("subcategory")),
		VendorName:  strings.TrimSpace(v.Get("vendorName")),
		Search:      strings.TrimSpace(v.Get("search")),
		Page:        DefaultPage,
		Limit:       DefaultLimit,
	}

	if t := v.Get("type"); t != "" {
		if !oneOf(t, models.AssetTypes) {
			errs.add("type", "type must be one of [%s]", quoteList(models.AssetTypes))
		}
		q.Type = t
	}
	if d := v.Get("departmentId"); d != "" {
		id := parseObjectID(&errs, "departmentId", d)
		q.DepartmentID = &id
	}
	if y := v.Get("academicYear"); y != "" {
		checkAcademicYear(&errs, "academicYear", y)
		q.AcademicYear = y
	}
	if p := v.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > MaxPage {
			errs.add("page", "page must be an integer between 1 and %d", MaxPage)
		}
		q.Page = n
	}
	if l := v.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > MaxLimit {
			errs.add("limit", "limit must be an integer between 1 and %d", MaxLimit)
		}
		q.Limit = n
	}

	if err := errs.err(); err != nil {
		return models.AssetQuery{}, err
	}
	return q, nil
}

// ValidateReportQuery checks the groupBy selector and the report filters.
func ValidateReportQuery(v url.Values) (models.ReportQuery, error) {
	var errs Errors
	q := models.ReportQuery{
		ItemName:   strings.TrimSpace(v.Get("itemName")),
		VendorName: strings.TrimSpace(v.Get("vendorName")),
	}

	switch g := v.Get("groupBy"); {
	case g == "":
		errs.add("groupBy", "groupBy is required")
	case !oneOf(g, models.GroupByValues):
		errs.add("groupBy", "groupBy must be one of [%s]", quoteList(models.GroupByValues))
	default:
		q.GroupBy = g
	}
	if d := v.Get("departmentId"); d != "" {
		id := parseObjectID(&errs, "departmentId", d)
		q.DepartmentID = &id
	}
	if y := v.Get("academicYear"); y != "" {
		checkAcademicYear(&errs, "academicYear", y)
		q.AcademicYear = y
	}

	if err := errs.err(); err != nil {
		return models.ReportQuery{}, err
	}
	return q, nil
}
