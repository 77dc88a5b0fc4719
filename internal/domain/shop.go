package domain

import "time"

type ShopStatus string

const (
	ShopStatusPending  ShopStatus = "pending"
	ShopStatusApproved ShopStatus = "approved"
	ShopStatusRejected ShopStatus = "rejected"
)

func (s ShopStatus) Valid() bool {
	switch s {
	case ShopStatusPending, ShopStatusApproved, ShopStatusRejected:
		return true
	}
	return false
}

// Shop is a retailer account. Status only changes through the out-of-band
// approval process; the client creates shops as pending and never updates them.
type Shop struct {
	ID         string     `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	OwnerName  string     `json:"ownerName" bson:"ownerName"`
	Phone      string     `json:"phone" bson:"phone"`
	Email      string     `json:"email,omitempty" bson:"email,omitempty"`
	Address    string     `json:"address" bson:"address"`
	LocationID string     `json:"locationId" bson:"locationId"`
	Status     ShopStatus `json:"status" bson:"status"`
	IsActive   bool       `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
}
