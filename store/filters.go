package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assetflow/models"
)

func assetFilter(q models.AssetQuery) bson.M {
	filter := bson.M{}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.DepartmentID != nil {
		filter["departmentId"] = *q.DepartmentID
	}
	if q.Subcategory != "" {
		filter["subcategory"] = containsFold(q.Subcategory)
	}
	if q.VendorName != "" {
		filter["items.vendorName"] = containsFold(q.VendorName)
	}
	if q.AcademicYear != "" {
		filter["academicYear"] = q.AcademicYear
	}
	if q.Search != "" {
		re := containsFold(q.Search)
		filter["$or"] = bson.A{
			bson.M{"subcategory": re},
			bson.M{"academicYear": re},
			bson.M{"items.itemName": re},
			bson.M{"items.vendorName": re},
		}
	}
	return filter
}

// reportFilter selects whole assets; every item of a matching asset is reported.
// listOptions sorts newest first with _id as the tie breaker, so pages never
// overlap or skip documents created in the same instant.
func listOptions(q models.AssetQuery) *options.FindOptions {
	page, limit := int64(q.Page), int64(q.Limit)
	if page < 1 {
		page = 1
	}
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
}

func reportFilter(q models.ReportQuery) bson.M {
	filter := bson.M{}
	if q.AcademicYear != "" {
		filter["academicYear"] = q.AcademicYear
	}
	if q.DepartmentID != nil {
		filter["departmentId"] = *q.DepartmentID
	}
	if q.ItemName != "" {
		filter["items.itemName"] = containsFold(q.ItemName)
	}
	if q.VendorName != "" {
		filter["items.vendorName"] = containsFold(q.VendorName)
	}
	return filter
}

func reportPipeline(q models.ReportQuery) bson.A {
	return bson.A{
		bson.M{"$match": reportFilter(q)},
		bson.M{"$sort": bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		bson.M{"$unwind": bson.M{"path": "$items", "includeArrayIndex": "itemIndex"}},
		bson.M{"$project": bson.M{
			"_id":          0,
			"assetId":      "$_id",
			"departmentId": 1,
			"academicYear": 1,
			"type":         1,
			"itemIndex":    1,
			"item":         "$items",
		}},
	}
}

func patchSet(p models.AssetPatch) bson.M {
	set := bson.M{}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.DepartmentID != nil {
		set["departmentId"] = *p.DepartmentID
	}
	if p.Subcategory != nil {
		set["subcategory"] = *p.Subcategory
	}
	if p.AcademicYear != nil {
		set["academicYear"] = *p.AcademicYear
	}
	if p.Items != nil {
		set["items"] = p.Items
		if p.GrandTotal != nil {
			set["grandTotal"] = *p.GrandTotal
		}
	}
	return set
}
