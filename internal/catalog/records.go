package catalog

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
)

type productRecord struct {
	ID           string   `bson:"_id"`
	Name         string   `bson:"name"`
	Description  string   `bson:"description,omitempty"`
	CategoryID   string   `bson:"categoryId"`
	CategoryName string   `bson:"categoryName"`
	LocationID   string   `bson:"locationId"`
	PriceGroupID string   `bson:"priceGroupId,omitempty"`
	Price        *float64 `bson:"price"`
	Unit         string   `bson:"unit"`
	Image        string   `bson:"image,omitempty"`
	Variant      string   `bson:"variant,omitempty"`
	SKU          string   `bson:"sku,omitempty"`
	Stock        int      `bson:"stock"`
	IsActive     bool     `bson:"isActive"`
}

func decodeLocation(collection string, raw bson.Raw) (domain.Location, error) {
	var loc domain.Location
	if err := docstore.Decode(raw, &loc); err != nil {
		return domain.Location{}, err
	}
	if loc.ID == "" || loc.Name == "" {
		return domain.Location{}, docstore.Malformed(collection, loc.ID, "id and name are required")
	}
	return loc, nil
}

func decodeCategory(collection string, raw bson.Raw) (domain.Category, error) {
	var c domain.Category
	if err := docstore.Decode(raw, &c); err != nil {
		return domain.Category{}, err
	}
	if c.ID == "" || c.Name == "" {
		return domain.Category{}, docstore.Malformed(collection, c.ID, "id and name are required")
	}
	return c, nil
}

func decodeProduct(collection string, raw bson.Raw) (domain.Product, error) {
	var r productRecord
	if err := docstore.Decode(raw, &r); err != nil {
		return domain.Product{}, err
	}
	switch {
	case r.ID == "" || r.Name == "":
		return domain.Product{}, docstore.Malformed(collection, r.ID, "id and name are required")
	case r.Price == nil:
		return domain.Product{}, docstore.Malformed(collection, r.ID, "price is required")
	case *r.Price < 0:
		return domain.Product{}, docstore.Malformed(collection, r.ID, fmt.Sprintf("negative price %v", *r.Price))
	}

	return domain.Product{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		LocationID:   r.LocationID,
		PriceGroupID: r.PriceGroupID,
		Price:        decimal.NewFromFloat(*r.Price),
		Unit:         r.Unit,
		Image:        r.Image,
		Variant:      r.Variant,
		SKU:          r.SKU,
		Stock:        r.Stock,
		IsActive:     r.IsActive,
	}, nil
}

// NewProductRecord converts a product into its stored shape, for seeding.
func NewProductRecord(p domain.Product) any {
	price := p.Price.InexactFloat64()
	return productRecord{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		LocationID:   p.LocationID,
		PriceGroupID: p.PriceGroupID,
		Price:        &price,
		Unit:         p.Unit,
		Image:        p.Image,
		Variant:      p.Variant,
		SKU:          p.SKU,
		Stock:        p.Stock,
		IsActive:     p.IsActive,
	}
}
