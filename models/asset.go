// models/asset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AssetTypeCapital = "capital"
	AssetTypeRevenue = "revenue"
)

// AssetTypes lists the accepted values of Asset.Type.
var AssetTypes = []string{AssetTypeCapital, AssetTypeRevenue}

// Officer is a snapshot of the submitting user taken when the asset is created.
type Officer struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// FileRef points at a stored bill attachment.
type FileRef struct {
	Storage     string `bson:"storage" json:"storage"` // mongo, minio
	Key         string `bson:"key" json:"key"`
	Filename    string `bson:"filename" json:"filename"`
	ContentType string `bson:"contentType" json:"contentType"`
	Size        int64  `bson:"size" json:"size"`
}

type AssetItem struct {
	ItemName      string     `bson:"itemName" json:"itemName"`
	Quantity      int        `bson:"quantity" json:"quantity"`
	PricePerItem  float64    `bson:"pricePerItem" json:"pricePerItem"`
	TotalAmount   float64    `bson:"totalAmount" json:"totalAmount"`
	VendorName    string     `bson:"vendorName" json:"vendorName"`
	VendorAddress string     `bson:"vendorAddress" json:"vendorAddress"`
	ContactNumber string     `bson:"contactNumber" json:"contactNumber"`
	Email         string     `bson:"email" json:"email"`
	BillNo        string     `bson:"billNo" json:"billNo"`
	BillDate      *time.Time `bson:"billDate,omitempty" json:"billDate,omitempty"`
	BillFileURL   string     `bson:"billFileUrl,omitempty" json:"billFileUrl,omitempty"`
	BillFile      *FileRef   `bson:"billFile,omitempty" json:"billFile,omitempty"`
}

type Asset struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type         string             `bson:"type" json:"type"` // capital, revenue
	DepartmentID primitive.ObjectID `bson:"departmentId" json:"departmentId"`
	Subcategory  string             `bson:"subcategory" json:"subcategory"`
	AcademicYear string             `bson:"academicYear" json:"academicYear"`
	Officer      Officer            `bson:"officer" json:"officer"`
	Items        []AssetItem        `bson:"items" json:"items"`
	GrandTotal   float64            `bson:"grandTotal" json:"grandTotal"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ApplyTotals recomputes every item total and the grand total, discarding whatever was there.
func (a *Asset) ApplyTotals() {
	a.Items, a.GrandTotal = ComputeTotals(a.Items)
}

// FileRefs returns the stored attachments of the asset, keyed by item index.
func (a *Asset) FileRefs() map[int]FileRef {
	refs := make(map[int]FileRef)
	for i, it := range a.Items {
		if it.BillFile != nil {
			refs[i] = *it.BillFile
		}
	}
	return refs
}

// AssetPatch carries the fields of a partial update. Nil means unchanged.
// When Items is set, GrandTotal must be set alongside it.
type AssetPatch struct {
	Type         *string
	DepartmentID *primitive.ObjectID
	Subcategory  *string
	AcademicYear *string
	Items        []AssetItem
	GrandTotal   *float64
}

// Empty reports whether the patch changes nothing.
func (p AssetPatch) Empty() bool {
	return p.Type == nil && p.DepartmentID == nil && p.Subcategory == nil &&
		p.AcademicYear == nil && p.Items == nil
}

// TypeSummary aggregates the assets of one type.
type TypeSummary struct {
	Count      int64   `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

type AssetSummary struct {
	TotalAssets int64                  `json:"totalAssets"`
	TotalValue  float64                `json:"totalValue"`
	ByType      map[string]TypeSummary `json:"byType"`
}

// ItemRow is one asset item flattened together with its parent context.
type ItemRow struct {
	AssetID      primitive.ObjectID `bson:"assetId" json:"assetId"`
	DepartmentID primitive.ObjectID `bson:"departmentId" json:"departmentId"`
	AcademicYear string             `bson:"academicYear" json:"academicYear"`
	Type         string             `bson:"type" json:"type"`
	ItemIndex    int                `bson:"itemIndex" json:"itemIndex"`
	Item         AssetItem          `bson:"item" json:"item"`
}
