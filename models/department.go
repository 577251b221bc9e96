package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DepartmentTypeMajor    = "major"
	DepartmentTypeAcademic = "academic"
	DepartmentTypeService  = "service"
)

var DepartmentTypes = []string{DepartmentTypeMajor, DepartmentTypeAcademic, DepartmentTypeService}

type Department struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Type      string             `bson:"type" json:"type"` // major, academic, service
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
