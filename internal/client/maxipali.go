package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"

	"groceryhub/internal/misc"
	"groceryhub/internal/model"
)

var ErrMaxiPali = errors.New("MaxiPali error")

type maxiPaliSearchRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type maxiPaliSearchResponse struct {
	Products []maxiPaliProduct `json:"products"`
	Total    int               `json:"total"`
}

type maxiPaliProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	ImageURL string  `json:"imageUrl"`
	EAN      string  `json:"ean"`
	SKU      string  `json:"sku"`
	InStock  bool    `json:"inStock"`
}

// MaxiPaliSearch runs a keyword search against the MaxiPali relay. Results
// are broad-match on the upstream side; callers are expected to post-filter.
func (c Client) MaxiPaliSearch(ctx context.Context, query string, page int, pageSize int) (SearchResult, error) {
	var sr SearchResult
	apiURL := c.MaxiPaliURL + "/api/search"
	cacheKey := fmt.Sprintf("MPS-%s-%d-%d", query, page, pageSize)
	if c.Redis != nil {
		cached, err := c.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			c.Logger.Debugf("MaxiPaliSearch: Cache found, key: %s", cacheKey)
			if err = json.Unmarshal([]byte(cached), &sr); err == nil {
				return sr, nil
			}
			c.Logger.Errorf("MaxiPaliSearch: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
		} else if err != redis.Nil {
			c.Logger.Errorf("MaxiPaliSearch: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
		}
	}

	reqBody, err := json.Marshal(maxiPaliSearchRequest{Query: query, Page: page, PageSize: pageSize})
	if err != nil {
		return sr, errors.Wrapf(err, "error marshalling search request for query: %s", query)
	}
	req, err := newRequest(http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return sr, errors.Wrapf(err, "error creating request to URL: %s", apiURL)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return sr, errors.Wrapf(ErrMaxiPali, "error doing request:\n%#v,\nerr: %v", req, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("MaxiPaliSearch: Error closing response body, req:\n%#v,\nerr: %v", req, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return sr, errors.Wrapf(err,
			"error reading MaxiPali search response body, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}
	if resp.StatusCode != http.StatusOK {
		return sr, errors.Wrapf(ErrMaxiPali, "error searching MaxiPali, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}

	searchResp := maxiPaliSearchResponse{}
	if err = json.Unmarshal(body, &searchResp); err != nil {
		return sr, errors.Wrapf(err,
			"error unmarshalling MaxiPali search response body, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}

	ps := make([]model.Product, 0, len(searchResp.Products))
	for _, mp := range searchResp.Products {
		if mp.ID == "" || mp.Name == "" {
			c.Logger.Warnf("MaxiPaliSearch: Skipping malformed MaxiPali product: %#v", mp)
			continue
		}
		ps = append(ps, model.Product{
			ID:       mp.ID,
			Name:     mp.Name,
			Brand:    mp.Brand,
			Price:    mp.Price,
			Category: mp.Category,
			Store:    model.StoreMaxiPali,
			ImageURL: mp.ImageURL,
			EAN:      mp.EAN,
			SKU:      mp.SKU,
			InStock:  mp.InStock,
		})
	}
	sr = SearchResult{
		Products: ps,
		Total:    searchResp.Total,
		HasMore:  page*pageSize < searchResp.Total,
	}

	if c.Redis != nil {
		if cacheVal, err := json.Marshal(sr); err == nil {
			if err = c.Redis.Set(ctx, cacheKey, cacheVal, c.SearchCacheTTL).Err(); err != nil {
				c.Logger.Errorf("MaxiPaliSearch: Error setting Redis cache with key: %s, err: %v", cacheKey, err)
			}
		}
	}
	return sr, nil
}
