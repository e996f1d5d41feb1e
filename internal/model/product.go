package model

import "strings"

type Store string

const (
	StoreMaxiPali  Store = "MaxiPali"
	StoreMasxMenos Store = "MasxMenos"
	StoreUnknown   Store = "Unknown"
)

var knownStores = []Store{StoreMaxiPali, StoreMasxMenos}

// NormalizeStore canonicalizes loosely matching store names so that later
// grouping and filtering by store is exact-match safe.
func NormalizeStore(s string) Store {
	for _, ks := range knownStores {
		if strings.Contains(strings.ToLower(s), strings.ToLower(string(ks))) {
			return ks
		}
	}
	return StoreUnknown
}

type Product struct {
	ID       string  `bson:"product_id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Brand    string  `bson:"brand" json:"brand"`
	Price    float64 `bson:"price" json:"price"`
	Category string  `bson:"category" json:"category"`
	Store    Store   `bson:"store" json:"store"`
	ImageURL string  `bson:"image_url" json:"image_url"`
	EAN      string  `bson:"ean" json:"ean"`
	SKU      string  `bson:"sku" json:"sku"`
	InStock  bool    `bson:"in_stock" json:"in_stock"`
}

// ProductData is the denormalized snapshot embedded in a list item. It is a
// cache of the upstream catalog entry at add time, not a reference.
type ProductData struct {
	ID       string  `bson:"product_id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Brand    string  `bson:"brand" json:"brand"`
	Price    float64 `bson:"price" json:"price"`
	Category string  `bson:"category" json:"category"`
	Store    Store   `bson:"store" json:"store"`
	ImageURL string  `bson:"image_url" json:"image_url"`
}

// Normalized returns a copy of p with the store name canonicalized and
// missing brand/category fields defaulted, ready for storage.
func (p Product) Normalized() Product {
	p.Store = NormalizeStore(string(p.Store))
	if p.Brand == "" {
		p.Brand = "Unknown"
	}
	if p.Category == "" {
		p.Category = "Grocery"
	}
	return p
}

func (p Product) Snapshot() ProductData {
	return ProductData{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Price:    p.Price,
		Category: p.Category,
		Store:    p.Store,
		ImageURL: p.ImageURL,
	}
}
