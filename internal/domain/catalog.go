package domain

import "github.com/shopspring/decimal"

// DefaultVariant labels products that carry no variant of their own.
const DefaultVariant = "Standard"

type Category struct {
	ID          string `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Image       string `json:"image,omitempty" bson:"image,omitempty"`
	Order       int    `json:"order" bson:"order"`
	IsActive    bool   `json:"isActive" bson:"isActive"`
}

// Product is a flat catalog record as stored remotely. Several products that
// share a PriceGroupID are variants of one sellable item.
type Product struct {
	ID           string
	Name         string
	Description  string
	CategoryID   string
	CategoryName string
	LocationID   string
	PriceGroupID string
	Price        decimal.Decimal
	Unit         string
	Image        string
	Variant      string
	SKU          string
	Stock        int
	IsActive     bool
}

type ProductVariant struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant"`
	SKU       string `json:"sku,omitempty"`
	Stock     int    `json:"stock"`
}

type ProductGroup struct {
	ID           string           `json:"id"`
	PriceGroupID string           `json:"priceGroupId,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	CategoryID   string           `json:"categoryId"`
	CategoryName string           `json:"categoryName"`
	Image        string           `json:"image,omitempty"`
	Unit         string           `json:"unit"`
	Variants     []ProductVariant `json:"variants"`
}

// Variant returns the variant with the given product id.
func (g ProductGroup) Variant(productID string) (ProductVariant, bool) {
	for _, v := range g.Variants {
		if v.ProductID == productID {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// Selection resolves the variant a cart line is for. An empty productID picks
// the first variant, which is what the product card preselects.
func (g ProductGroup) Selection(productID string) (ProductVariant, bool) {
	if productID == "" {
		if len(g.Variants) == 0 {
			return ProductVariant{}, false
		}
		return g.Variants[0], true
	}
	return g.Variant(productID)
}

// GroupProducts folds flat products into groups keyed by price group id, or by
// the product id when the product has none. Groups keep the order in which
// their key was first seen and variants keep input order.
func GroupProducts(products []Product) []ProductGroup {
	groups := make([]ProductGroup, 0, len(products))
	index := make(map[string]int, len(products))

	for _, p := range products {
		key := p.PriceGroupID
		if key == "" {
			key = p.ID
		}

		i, ok := index[key]
		if !ok {
			groups = append(groups, ProductGroup{
				ID:           key,
				PriceGroupID: p.PriceGroupID,
				Name:         p.Name,
				Description:  p.Description,
				Price:        p.Price,
				CategoryID:   p.CategoryID,
				CategoryName: p.CategoryName,
				Image:        p.Image,
				Unit:         p.Unit,
			})
			i = len(groups) - 1
			index[key] = i
		}

		variant := p.Variant
		if variant == "" {
			variant = DefaultVariant
		}
		groups[i].Variants = append(groups[i].Variants, ProductVariant{
			ProductID: p.ID,
			Variant:   variant,
			SKU:       p.SKU,
			Stock:     p.Stock,
		})
	}

	return groups
}

// FindGroup returns the group with the given id.
func FindGroup(groups []ProductGroup, groupID string) (ProductGroup, bool) {
	for _, g := range groups {
		if g.ID == groupID {
			return g, true
		}
	}
	return ProductGroup{}, false
}
