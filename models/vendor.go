package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vendor is an address-book entry. Asset items copy vendor details as free text
// and are not linked to this collection.
type Vendor struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	ContactNumber string             `bson:"contactNumber" json:"contactNumber"`
	Address       string             `bson:"address" json:"address"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
