package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"assetflow/models"
)

// ItemInput is an asset item as submitted by a client. totalAmount is
// accepted but never used.
type ItemInput struct {
	ItemName      string   `json:"itemName"`
	Quantity      *float64 `json:"quantity"`
	PricePerItem  *float64 `json:"pricePerItem"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	VendorName    string   `json:"vendorName"`
	VendorAddress string   `json:"vendorAddress"`
	ContactNumber string   `json:"contactNumber"`
	Email         string   `json:"email"`
	BillNo        string   `json:"billNo"`
	BillDate      *string  `json:"billDate"`
	BillFileURL   string   `json:"billFileUrl"`
}

// AssetInput is an asset payload. Nil pointers mark absent fields so the same
// type serves create and partial update. grandTotal is accepted but never used.
type AssetInput struct {
	Type         *string      `json:"type"`
	DepartmentID *string      `json:"departmentId"`
	Subcategory  *string      `json:"subcategory"`
	AcademicYear *string      `json:"academicYear"`
	Items        []ItemInput  `json:"items"`
	GrandTotal   *float64     `json:"grandTotal,omitempty"`
	Officer      *OfficerInfo `json:"officer,omitempty"`
}

// OfficerInfo is ignored on input; the officer is always the authenticated user.
type OfficerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ValidateAssetCreate returns an asset with every client field checked. Totals,
// officer, id and timestamps are left for the caller.
func ValidateAssetCreate(in AssetInput) (*models.Asset, error) {
	var errs Errors
	asset := &models.Asset{}

	if in.Type == nil || *in.Type == "" {
		errs.add("type", "type is required")
	} else if !oneOf(*in.Type, models.AssetTypes) {
		errs.add("type", "type must be one of [%s]", quoteList(models.AssetTypes))
	} else {
		asset.Type = *in.Type
	}

	if in.DepartmentID == nil || *in.DepartmentID == "" {
		errs.add("departmentId", "departmentId is required")
	} else {
		asset.DepartmentID = parseObjectID(&errs, "departmentId", *in.DepartmentID)
	}

	if in.Subcategory != nil {
		asset.Subcategory = strings.TrimSpace(*in.Subcategory)
	}

	if in.AcademicYear == nil || *in.AcademicYear == "" {
		errs.add("academicYear", "academicYear is required")
	} else {
		checkAcademicYear(&errs, "academicYear", *in.AcademicYear)
		asset.AcademicYear = *in.AcademicYear
	}

	if in.Items == nil {
		errs.add("items", "items is required")
	} else {
		asset.Items = validateItems(&errs, in.Items)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return asset, nil
}

// ValidateAssetUpdate checks the present fields of a partial update. At least
// one updatable field must be present. Items, when present, replace the list;
// totals are left for the caller.
func ValidateAssetUpdate(in AssetInput) (*models.AssetPatch, error) {
	var errs Errors
	patch := &models.AssetPatch{}

	if in.Type != nil {
		if !oneOf(*in.Type, models.AssetTypes) {
			errs.add("type", "type must be one of [%s]", quoteList(models.AssetTypes))
		} else {
			patch.Type = in.Type
		}
	}
	if in.DepartmentID != nil {
		id := parseObjectID(&errs, "departmentId", *in.DepartmentID)
		patch.DepartmentID = &id
	}
	if in.Subcategory != nil {
		sub := strings.TrimSpace(*in.Subcategory)
		patch.Subcategory = &sub
	}
	if in.AcademicYear != nil {
		checkAcademicYear(&errs, "academicYear", *in.AcademicYear)
		patch.AcademicYear = in.AcademicYear
	}
	if in.Items != nil {
		patch.Items = validateItems(&errs, in.Items)
	}

	if len(errs) == 0 && patch.Empty() {
		errs.add("", "at least one field must be provided")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return patch, nil
}

func validateItems(errs *Errors, in []ItemInput) []models.AssetItem {
	if len(in) == 0 {
		errs.add("items", "items must contain at least 1 item")
		return nil
	}
	items := make([]models.AssetItem, 0, len(in))
	for i, it := range in {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		item := models.AssetItem{
			ItemName:      strings.TrimSpace(it.ItemName),
			VendorName:    strings.TrimSpace(it.VendorName),
			VendorAddress: it.VendorAddress,
			ContactNumber: it.ContactNumber,
			Email:         strings.TrimSpace(it.Email),
			BillNo:        it.BillNo,
			BillFileURL:   strings.TrimSpace(it.BillFileURL),
		}

		if item.ItemName == "" {
			errs.add(field("itemName"), "%s is required", field("itemName"))
		}

		switch {
		case it.Quantity == nil:
			errs.add(field("quantity"), "%s is required", field("quantity"))
		case *it.Quantity != math.Trunc(*it.Quantity) || *it.Quantity < 1 || *it.Quantity > math.MaxInt32:
			errs.add(field("quantity"), "%s must be an integer greater than or equal to 1", field("quantity"))
		default:
			item.Quantity = int(*it.Quantity)
		}

		switch {
		case it.PricePerItem == nil:
			errs.add(field("pricePerItem"), "%s is required", field("pricePerItem"))
		case *it.PricePerItem < 0:
			errs.add(field("pricePerItem"), "%s must be greater than or equal to 0", field("pricePerItem"))
		default:
			item.PricePerItem = *it.PricePerItem
		}

		if item.Email != "" && !validEmail(item.Email) {
			errs.add(field("email"), "%s must be a valid email", field("email"))
		}
		if item.BillFileURL != "" && !validURL(item.BillFileURL) {
			errs.add(field("billFileUrl"), "%s must be a valid uri", field("billFileUrl"))
		}
		if it.BillDate != nil && *it.BillDate != "" {
			d, err := parseDate(*it.BillDate)
			if err != nil {
				errs.add(field("billDate"), "%s must be in ISO 8601 date format", field("billDate"))
			} else {
				item.BillDate = &d
			}
		}
		items = append(items, item)
	}
	return items
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
