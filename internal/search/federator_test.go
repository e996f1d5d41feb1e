package search

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"groceryhub/internal/client"
	"groceryhub/internal/model"
)

type fakeSearcher struct {
	maxiPali    client.SearchResult
	maxiPaliErr error
	masxMenos   client.SearchResult
	masxMenoErr error
}

func (f fakeSearcher) MaxiPaliSearch(_ context.Context, _ string, _ int, _ int) (client.SearchResult, error) {
	return f.maxiPali, f.maxiPaliErr
}

func (f fakeSearcher) MasxMenosSearch(_ context.Context, _ string, _ int, _ int) (client.SearchResult, error) {
	return f.masxMenos, f.masxMenoErr
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func mpProduct(id, name string, price float64) model.Product {
	return model.Product{ID: id, Name: name, Price: price, Store: model.StoreMaxiPali, InStock: true}
}

func mmProduct(id, name string, price float64) model.Product {
	return model.Product{ID: id, Name: name, Price: price, Store: model.StoreMasxMenos, InStock: true}
}

func TestSearchMergesBothStores(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPali: client.SearchResult{
				Products: []model.Product{
					mpProduct("1", "Leche Dos Pinos 1L", 1200),
					mpProduct("2", "Pan Cuadrado Bimbo", 1500),
				},
				Total: 2,
			},
			masxMenos: client.SearchResult{
				Products: []model.Product{mmProduct("3", "Leche Dos Pinos Semidescremada 1L", 1150)},
				Total:    1,
				HasMore:  true,
			},
		},
		Logger: nopLogger{},
	}

	r, err := f.Search(context.Background(), "leche")
	if err != nil {
		t.Fatalf("Search returned err: %v", err)
	}
	if len(r.Products) != 2 {
		t.Fatalf("len(Products) = %d, want 2 (broad MaxiPali match filtered out)", len(r.Products))
	}
	for _, p := range r.Products {
		if p.ID == "2" {
			t.Error("broad match 'Pan Cuadrado Bimbo' survived the leche query")
		}
	}
	if r.Total != 3 {
		t.Errorf("Total = %d, want 3", r.Total)
	}
	if !r.HasMore {
		t.Error("HasMore = false, want true when one upstream has more pages")
	}
	if len(r.Unavailable) != 0 {
		t.Errorf("Unavailable = %v, want empty", r.Unavailable)
	}
}

func TestSearchPartialFailure(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPaliErr: errors.New("connection refused"),
			masxMenos: client.SearchResult{
				Products: []model.Product{
					mmProduct("1", "Leche Entera", 1100),
					mmProduct("2", "Leche Descremada", 1050),
					mmProduct("3", "Leche Deslactosada", 1300),
				},
				Total: 3,
			},
		},
		Logger: nopLogger{},
	}

	r, err := f.Search(context.Background(), "leche")
	if err != nil {
		t.Fatalf("Search returned err: %v, want partial result", err)
	}
	if len(r.Products) != 3 {
		t.Errorf("len(Products) = %d, want 3 from the healthy upstream", len(r.Products))
	}
	if len(r.Unavailable) != 1 || r.Unavailable[0] != model.StoreMaxiPali {
		t.Errorf("Unavailable = %v, want [%s]", r.Unavailable, model.StoreMaxiPali)
	}
}

func TestSearchAllUpstreamsFail(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPaliErr: errors.New("timeout"),
			masxMenoErr: errors.New("HTTP 503"),
		},
		Logger: nopLogger{},
	}

	_, err := f.Search(context.Background(), "leche")
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Errorf("err = %v, want ErrSearchUnavailable", err)
	}
}

func TestSearchDeduplicatesWithinStore(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPali: client.SearchResult{
				Products: []model.Product{
					mpProduct("1", "Leche Entera", 1200),
					mpProduct("1", "Leche Entera", 1200),
				},
				Total: 2,
			},
			masxMenos: client.SearchResult{
				Products: []model.Product{mmProduct("1", "Leche Entera", 1150)},
				Total:    1,
			},
		},
		Logger: nopLogger{},
	}

	r, err := f.Search(context.Background(), "leche")
	if err != nil {
		t.Fatalf("Search returned err: %v", err)
	}
	// Same ID across different stores is legitimate; same ID within one
	// store is not.
	if len(r.Products) != 2 {
		t.Errorf("len(Products) = %d, want 2", len(r.Products))
	}
}

func TestRankDeterministic(t *testing.T) {
	ps := []model.Product{
		{ID: "1", Name: "Galletas de leche", Store: model.StoreMaxiPali},
		{ID: "2", Name: "Leche Dos Pinos", Store: model.StoreMaxiPali, ImageURL: "https://img/2.jpg"},
		{ID: "3", Name: "Queso fresco", Brand: "Leche y Miel", Store: model.StoreMasxMenos},
		{ID: "4", Name: "Leche Dos Pinos", Store: model.StoreMasxMenos},
	}

	got := Rank("leche dos pinos", ps)

	// Exact name matches first; image presence breaks the tie between them.
	wantOrder := []string{"2", "4", "1", "3"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("Rank order = %v, want IDs %v", ids(got), wantOrder)
		}
	}

	again := Rank("leche dos pinos", ps)
	for i := range got {
		if got[i].ID != again[i].ID || got[i].Store != again[i].Store {
			t.Fatal("Rank is not deterministic across identical calls")
		}
	}
}

func TestRankScoresAccumulateAcrossFields(t *testing.T) {
	ps := []model.Product{
		{ID: "a", Name: "Dos Pinos Leche Entera", Brand: "Dos Pinos", Store: model.StoreMaxiPali},
		{ID: "b", Name: "Dos Pinos Arroz", Store: model.StoreMasxMenos, ImageURL: "https://img/b.jpg"},
	}

	// Each token hits a's name and brand (3+2 per token, 10 total) but only
	// b's name (6 total); the image tiebreak must not outrank the score gap.
	got := Rank("pinos dos", ps)
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Rank order = %v, want [a b]", ids(got))
	}
}

func TestRankExactMatchTierKeepsTokenOrder(t *testing.T) {
	ps := []model.Product{
		{ID: "1", Name: "Leche Entera 1L", Store: model.StoreMaxiPali, ImageURL: "https://img/1.jpg"},
		{ID: "2", Name: "Leche Entera Premium", Brand: "Leche Entera", Store: model.StoreMasxMenos},
	}

	// Both are exact name matches; 2's brand hits lift it above 1 inside the
	// exact tier despite 1's image.
	got := Rank("leche entera", ps)
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("Rank order = %v, want [2 1]", ids(got))
	}
}

func ids(ps []model.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFilterBroadMatch(t *testing.T) {
	ps := []model.Product{
		{ID: "1", Name: "Arroz Tio Pelon 1kg"},
		{ID: "2", Name: "Frijoles Negros", Category: "Arroz y Granos"},
		{ID: "3", Name: "Pan Blanco"},
		{ID: "4", Name: "Mistery Box", EAN: "7441001600012"},
	}

	got := FilterBroadMatch("arroz", ps)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (name and category matches)", len(got))
	}

	got = FilterBroadMatch("7441001600012", ps)
	if len(got) != 1 || got[0].ID != "4" {
		t.Errorf("barcode query result = %v, want exact EAN match only", ids(got))
	}

	got = FilterBroadMatch("", ps)
	if len(got) != len(ps) {
		t.Errorf("empty query filtered products, len = %d, want %d", len(got), len(ps))
	}
}

func TestComparePrices(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPali: client.SearchResult{
				Products: []model.Product{
					mpProduct("1", "Leche Dos Pinos 1L", 1200),
					mpProduct("2", "Leche Dos Pinos 2L", 2300),
				},
				Total: 2,
			},
			masxMenos: client.SearchResult{
				Products: []model.Product{mmProduct("3", "Leche Dos Pinos 1L", 1000)},
				Total:    1,
			},
		},
		Logger: nopLogger{},
	}

	cmp, err := f.ComparePrices(context.Background(), "leche dos pinos")
	if err != nil {
		t.Fatalf("ComparePrices returned err: %v", err)
	}
	if cmp.BestPrice == nil {
		t.Fatal("BestPrice = nil, want the cheaper store")
	}
	if cmp.BestPrice.Store != model.StoreMasxMenos {
		t.Errorf("BestPrice.Store = %s, want %s", cmp.BestPrice.Store, model.StoreMasxMenos)
	}
	if cmp.BestPrice.Price != 1000 {
		t.Errorf("BestPrice.Price = %v, want 1000", cmp.BestPrice.Price)
	}
	if cmp.BestPrice.Savings != 200 {
		t.Errorf("BestPrice.Savings = %v, want 200", cmp.BestPrice.Savings)
	}
	if cmp.BestPrice.SavingsPercentage != 17 {
		t.Errorf("BestPrice.SavingsPercentage = %d, want 17", cmp.BestPrice.SavingsPercentage)
	}
}

func TestComparePricesSingleStore(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{
			maxiPali: client.SearchResult{
				Products: []model.Product{mpProduct("1", "Cafe 1820 500g", 3500)},
				Total:    1,
			},
			masxMenoErr: errors.New("HTTP 500"),
		},
		Logger: nopLogger{},
	}

	cmp, err := f.ComparePrices(context.Background(), "cafe 1820")
	if err != nil {
		t.Fatalf("ComparePrices returned err: %v", err)
	}
	if cmp.BestPrice == nil {
		t.Fatal("BestPrice = nil, want single-store result")
	}
	if cmp.BestPrice.Savings != 0 || cmp.BestPrice.SavingsPercentage != 0 {
		t.Errorf("single store savings = %v/%d%%, want zero", cmp.BestPrice.Savings, cmp.BestPrice.SavingsPercentage)
	}
}

func TestComparePricesNoMatches(t *testing.T) {
	f := Federator{
		Client: fakeSearcher{},
		Logger: nopLogger{},
	}

	cmp, err := f.ComparePrices(context.Background(), "producto inexistente")
	if err != nil {
		t.Fatalf("ComparePrices returned err: %v", err)
	}
	if cmp.BestPrice != nil {
		t.Errorf("BestPrice = %+v, want nil when no store matched", cmp.BestPrice)
	}
}
