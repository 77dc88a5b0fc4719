package domain

type Location struct {
	ID        string   `json:"id" bson:"_id"`
	Name      string   `json:"name" bson:"name"`
	Address   string   `json:"address" bson:"address"`
	City      string   `json:"city" bson:"city"`
	State     string   `json:"state" bson:"state"`
	Pincode   string   `json:"pincode" bson:"pincode"`
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	IsActive  bool     `json:"isActive" bson:"isActive"`
}

// HasCoordinates reports whether the location carries both latitude and longitude.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
