package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload is a bill attachment held inside the database.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename    string             `bson:"filename" json:"filename"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Data        []byte             `bson:"data" json:"-"`
	Size        int64              `bson:"size" json:"size"`
	AssetID     primitive.ObjectID `bson:"assetId" json:"assetId"`
	ItemIndex   int                `bson:"itemIndex" json:"itemIndex"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
