package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AssetQuery is a validated asset list request.
type AssetQuery struct {
	Type         string
	DepartmentID *primitive.ObjectID
	Subcategory  string
	VendorName   string
	AcademicYear string
	Search       string
	Page         int
	Limit        int
}

const (
	GroupByDepartment = "department"
	GroupByItem       = "item"
	GroupByVendor     = "vendor"
)

var GroupByValues = []string{GroupByDepartment, GroupByItem, GroupByVendor}

// ReportQuery is a validated report request. The filters select whole assets.
type ReportQuery struct {
	GroupBy      string
	AcademicYear string
	DepartmentID *primitive.ObjectID
	ItemName     string
	VendorName   string
}
