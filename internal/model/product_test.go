package model

import "testing"

func TestNormalizeStore(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Store
	}{
		{"exact MaxiPali", "MaxiPali", StoreMaxiPali},
		{"lowercase", "maxipali", StoreMaxiPali},
		{"embedded in longer name", "Supermercado MaxiPali Heredia", StoreMaxiPali},
		{"exact MasxMenos", "MasxMenos", StoreMasxMenos},
		{"mixed case", "MASXMENOS", StoreMasxMenos},
		{"unknown retailer", "Walmart", StoreUnknown},
		{"empty", "", StoreUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStore(tt.in); got != tt.want {
				t.Errorf("NormalizeStore(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProductNormalized(t *testing.T) {
	p := Product{
		ID:    "p1",
		Name:  "Leche Semidescremada",
		Store: "maxipali costa rica",
		Price: 1200,
	}
	got := p.Normalized()

	if got.Store != StoreMaxiPali {
		t.Errorf("Store = %q, want %q", got.Store, StoreMaxiPali)
	}
	if got.Brand != "Unknown" {
		t.Errorf("Brand = %q, want default %q", got.Brand, "Unknown")
	}
	if got.Category != "Grocery" {
		t.Errorf("Category = %q, want default %q", got.Category, "Grocery")
	}

	p.Brand = "Dos Pinos"
	p.Category = "Dairy"
	got = p.Normalized()
	if got.Brand != "Dos Pinos" || got.Category != "Dairy" {
		t.Errorf("Normalized overwrote set fields, got Brand: %q, Category: %q", got.Brand, got.Category)
	}
}
