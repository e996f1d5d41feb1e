package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"groceryhub/internal/client"
	"groceryhub/internal/model"
)

// ErrSearchUnavailable signals that every upstream search failed, as opposed
// to all of them succeeding with zero matches.
var ErrSearchUnavailable = errors.New("product search unavailable")

type Searcher interface {
	MaxiPaliSearch(ctx context.Context, query string, page int, pageSize int) (client.SearchResult, error)
	MasxMenosSearch(ctx context.Context, query string, from int, to int) (client.SearchResult, error)
}

type logger interface {
	Debugf(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Federator merges product search results from both retailers into one
// ranked result set. Each upstream fails independently; only when both fail
// is the search reported unavailable.
type Federator struct {
	Client   Searcher
	Logger   logger
	PageSize int
}

const defaultPageSize = 24

func (f Federator) pageSize() int {
	if f.PageSize > 0 {
		return f.PageSize
	}
	return defaultPageSize
}

type Result struct {
	Products    []model.Product `json:"products"`
	Total       int             `json:"total"`
	HasMore     bool            `json:"has_more"`
	Unavailable []model.Store   `json:"unavailable,omitempty"`
}

type upstreamResult struct {
	store model.Store
	res   client.SearchResult
	err   error
}

// searchBoth issues both upstream searches concurrently and waits for both.
// Neither branch blocks or cancels the other.
func (f Federator) searchBoth(ctx context.Context, query string) (maxiPali upstreamResult, masxMenos upstreamResult) {
	size := f.pageSize()
	ch := make(chan upstreamResult, 2)
	go func() {
		res, err := f.Client.MaxiPaliSearch(ctx, query, 1, size)
		if err == nil {
			res.Products = FilterBroadMatch(query, res.Products)
		}
		ch <- upstreamResult{store: model.StoreMaxiPali, res: res, err: err}
	}()
	go func() {
		res, err := f.Client.MasxMenosSearch(ctx, query, 0, size-1)
		ch <- upstreamResult{store: model.StoreMasxMenos, res: res, err: err}
	}()
	for i := 0; i < 2; i++ {
		r := <-ch
		if r.store == model.StoreMaxiPali {
			maxiPali = r
		} else {
			masxMenos = r
		}
	}
	return maxiPali, masxMenos
}

// Search returns the merged, ranked first page of results for query.
func (f Federator) Search(ctx context.Context, query string) (Result, error) {
	mp, mm := f.searchBoth(ctx, query)
	if mp.err != nil && mm.err != nil {
		f.Logger.Errorf("Search: All upstream searches failed for query: %s, MaxiPali err: %v, MasxMenos err: %v",
			query, mp.err, mm.err)
		return Result{}, errors.Wrapf(ErrSearchUnavailable, "query: %s", query)
	}

	var r Result
	for _, ur := range []upstreamResult{mp, mm} {
		if ur.err != nil {
			f.Logger.Warnf("Search: Upstream %s failed for query: %s, err: %v", ur.store, query, ur.err)
			r.Unavailable = append(r.Unavailable, ur.store)
			continue
		}
		r.Products = append(r.Products, ur.res.Products...)
		r.Total += ur.res.Total
		r.HasMore = r.HasMore || ur.res.HasMore
	}
	r.Products = Rank(query, dedupeByStore(r.Products))
	return r, nil
}

// SearchStore returns one page of results from a single retailer.
func (f Federator) SearchStore(ctx context.Context, store model.Store, query string, page int, pageSize int) (client.SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = f.pageSize()
	}
	switch store {
	case model.StoreMaxiPali:
		res, err := f.Client.MaxiPaliSearch(ctx, query, page, pageSize)
		if err != nil {
			return res, errors.Wrapf(ErrSearchUnavailable, "store: %s, query: %s, err: %v", store, query, err)
		}
		res.Products = FilterBroadMatch(query, res.Products)
		return res, nil
	case model.StoreMasxMenos:
		from := (page - 1) * pageSize
		res, err := f.Client.MasxMenosSearch(ctx, query, from, from+pageSize-1)
		if err != nil {
			return res, errors.Wrapf(ErrSearchUnavailable, "store: %s, query: %s, err: %v", store, query, err)
		}
		return res, nil
	}
	return client.SearchResult{}, errors.Errorf("unknown store: %s", store)
}

type BestPrice struct {
	Store             model.Store `json:"store"`
	Price             float64     `json:"price"`
	Savings           float64     `json:"savings"`
	SavingsPercentage int         `json:"savings_percentage"`
}

type Comparison struct {
	MaxiPali  []model.Product `json:"maxipali"`
	MasxMenos []model.Product `json:"masxmenos"`
	BestPrice *BestPrice      `json:"best_price"`
}

// ComparePrices searches both stores for a product identified by name or
// barcode and reports each store's cheapest match plus the savings of buying
// at the cheaper one. With a single matching store the savings are zero; with
// none, BestPrice is nil.
func (f Federator) ComparePrices(ctx context.Context, query string) (Comparison, error) {
	mp, mm := f.searchBoth(ctx, query)
	if mp.err != nil && mm.err != nil {
		f.Logger.Errorf("ComparePrices: All upstream searches failed for query: %s, MaxiPali err: %v, MasxMenos err: %v",
			query, mp.err, mm.err)
		return Comparison{}, errors.Wrapf(ErrSearchUnavailable, "query: %s", query)
	}
	cmp := Comparison{
		MaxiPali:  Rank(query, mp.res.Products),
		MasxMenos: Rank(query, mm.res.Products),
	}
	cmp.BestPrice = bestPrice(cheapest(cmp.MaxiPali), cheapest(cmp.MasxMenos))
	return cmp, nil
}

func cheapest(ps []model.Product) *model.Product {
	var best *model.Product
	for i := range ps {
		if ps[i].Price < 0 {
			continue
		}
		if best == nil || ps[i].Price < best.Price {
			best = &ps[i]
		}
	}
	return best
}

func bestPrice(a *model.Product, b *model.Product) *BestPrice {
	switch {
	case a == nil && b == nil:
		return nil
	case b == nil:
		return &BestPrice{Store: a.Store, Price: a.Price}
	case a == nil:
		return &BestPrice{Store: b.Store, Price: b.Price}
	}
	lower, higher := a, b
	if b.Price < a.Price {
		lower, higher = b, a
	}
	savings := higher.Price - lower.Price
	bp := &BestPrice{
		Store:   lower.Store,
		Price:   lower.Price,
		Savings: savings,
	}
	if higher.Price > 0 {
		bp.SavingsPercentage = int(math.Round(savings / higher.Price * 100))
	}
	return bp
}

// FilterBroadMatch drops products that do not contain every query token in
// their name, brand or category. The MaxiPali upstream matches broadly, so
// its raw results need this pass; an exact barcode match always passes.
func FilterBroadMatch(query string, ps []model.Product) []model.Product {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return ps
	}
	filtered := ps[:0:0]
	for _, p := range ps {
		if p.EAN != "" && p.EAN == strings.TrimSpace(query) {
			filtered = append(filtered, p)
			continue
		}
		haystack := strings.ToLower(p.Name + " " + p.Brand + " " + p.Category)
		match := true
		for _, t := range tokens {
			if !strings.Contains(haystack, t) {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Rank orders products by relevance to query. The order is deterministic and
// total: exact name substring matches form the top tier, within each tier
// weighted token overlap decides (a token scores every field it hits: name 3,
// brand 2, category 1), then image presence, then name.
func Rank(query string, ps []model.Product) []model.Product {
	tokens := queryTokens(query)
	q := strings.ToLower(strings.TrimSpace(query))
	ranked := append([]model.Product{}, ps...)
	scores := make(map[string]relevance, len(ranked))
	for _, p := range ranked {
		scores[string(p.Store)+"/"+p.ID] = relevanceOf(q, tokens, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := scores[string(ranked[i].Store)+"/"+ranked[i].ID], scores[string(ranked[j].Store)+"/"+ranked[j].ID]
		if ri.exact != rj.exact {
			return ri.exact
		}
		if ri.score != rj.score {
			return ri.score > rj.score
		}
		hi, hj := ranked[i].ImageURL != "", ranked[j].ImageURL != ""
		if hi != hj {
			return hi
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})
	return ranked
}

type relevance struct {
	exact bool
	score int
}

func relevanceOf(q string, tokens []string, p model.Product) relevance {
	name := strings.ToLower(p.Name)
	brand := strings.ToLower(p.Brand)
	category := strings.ToLower(p.Category)
	r := relevance{exact: q != "" && strings.Contains(name, q)}
	for _, t := range tokens {
		if strings.Contains(name, t) {
			r.score += 3
		}
		if strings.Contains(brand, t) {
			r.score += 2
		}
		if strings.Contains(category, t) {
			r.score += 1
		}
	}
	return r
}

// queryTokens splits the query into lowercase tokens, dropping tokens of
// length <= 1.
func queryTokens(query string) []string {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len(t) > 1 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func dedupeByStore(ps []model.Product) []model.Product {
	type key struct {
		store model.Store
		id    string
	}
	seen := make(map[key]bool, len(ps))
	deduped := ps[:0:0]
	for _, p := range ps {
		k := key{store: p.Store, id: p.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, p)
	}
	return deduped
}
