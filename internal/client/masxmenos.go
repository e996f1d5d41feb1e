package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"groceryhub/internal/misc"
	"groceryhub/internal/model"
)

var ErrMasxMenos = errors.New("MasxMenos error")

type masxMenosSearchRequest struct {
	Query     string `json:"query"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	OrderBy   string `json:"orderBy"`
	Hideunav  bool   `json:"hideUnavailableItems"`
	Locale    string `json:"locale"`
	Operation string `json:"operationName"`
}

// masxMenosSearchResponse mirrors the faceted search payload. Only the field
// paths the app reads are declared; everything else is dropped on decode.
type masxMenosSearchResponse struct {
	Products        []masxMenosProduct `json:"products"`
	RecordsFiltered int                `json:"recordsFiltered"`
}

type masxMenosProduct struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Brand       string   `json:"brand"`
	Categories  []string `json:"categories"`
	Items       []struct {
		EAN    string `json:"ean"`
		Images []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"images"`
		Sellers []struct {
			CommertialOffer struct {
				Price       float64 `json:"Price"`
				IsAvailable bool    `json:"IsAvailable"`
			} `json:"commertialOffer"`
		} `json:"sellers"`
	} `json:"items"`
}

// MasxMenosSearch runs a faceted search against the MasxMenos relay using the
// from/to pagination cursors the upstream expects. Upstream results are
// already relevance-filtered.
func (c Client) MasxMenosSearch(ctx context.Context, query string, from int, to int) (SearchResult, error) {
	var sr SearchResult
	apiURL := c.MasxMenosURL + "/api/io/_v/api/search"
	cacheKey := fmt.Sprintf("MMS-%s-%d-%d", query, from, to)
	if c.Redis != nil {
		cached, err := c.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			c.Logger.Debugf("MasxMenosSearch: Cache found, key: %s", cacheKey)
			if err = json.Unmarshal([]byte(cached), &sr); err == nil {
				return sr, nil
			}
			c.Logger.Errorf("MasxMenosSearch: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
		} else if err != redis.Nil {
			c.Logger.Errorf("MasxMenosSearch: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
		}
	}

	searchReq := masxMenosSearchRequest{
		Query:     query,
		From:      from,
		To:        to,
		OrderBy:   "OrderByScoreDESC",
		Hideunav:  false,
		Locale:    "es-CR",
		Operation: "productSearchV3",
	}
	var reqBodyBuf bytes.Buffer
	reqEncoder := json.NewEncoder(&reqBodyBuf)
	reqEncoder.SetEscapeHTML(false)
	if err := reqEncoder.Encode(searchReq); err != nil {
		return sr, errors.Wrapf(err, "failed encoding search request body for query: %s", query)
	}
	reqBody := bytes.TrimSuffix(reqBodyBuf.Bytes(), []byte("\n"))

	req, err := newRequest(http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return sr, errors.Wrapf(err, "error creating request to URL: %s, with body:\n%s", apiURL, reqBody)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return sr, errors.Wrapf(ErrMasxMenos, "error doing request:\n%#v,\nreq body:\n%s,\nerr: %v", req, reqBody, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("MasxMenosSearch: Error closing response body, req:\n%#v,\nerr: %v", req, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 1024*1024))
	if err != nil {
		return sr, errors.Wrapf(err,
			"error reading MasxMenos search response body, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}
	if resp.StatusCode != http.StatusOK {
		return sr, errors.Wrapf(ErrMasxMenos, "error searching MasxMenos, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}

	searchResp := masxMenosSearchResponse{}
	if err = json.Unmarshal(body, &searchResp); err != nil {
		return sr, errors.Wrapf(err,
			"error unmarshalling MasxMenos search response body, status: %s, body:\n%s,\nreq:\n%#v",
			resp.Status, misc.BytesLimit(body, 500), req)
	}

	ps := make([]model.Product, 0, len(searchResp.Products))
	for _, mp := range searchResp.Products {
		p, ok := mp.toProduct()
		if !ok {
			c.Logger.Warnf("MasxMenosSearch: Skipping malformed MasxMenos product: %#v", mp)
			continue
		}
		ps = append(ps, p)
	}
	sr = SearchResult{
		Products: ps,
		Total:    searchResp.RecordsFiltered,
		HasMore:  to+1 < searchResp.RecordsFiltered,
	}

	if c.Redis != nil {
		if cacheVal, err := json.Marshal(sr); err == nil {
			if err = c.Redis.Set(ctx, cacheKey, cacheVal, c.SearchCacheTTL).Err(); err != nil {
				c.Logger.Errorf("MasxMenosSearch: Error setting Redis cache with key: %s, err: %v", cacheKey, err)
			}
		}
	}
	return sr, nil
}

func (mp masxMenosProduct) toProduct() (model.Product, bool) {
	if mp.ProductID == "" || mp.ProductName == "" || len(mp.Items) == 0 || len(mp.Items[0].Sellers) == 0 {
		return model.Product{}, false
	}
	item := mp.Items[0]
	var imageURL string
	if len(item.Images) > 0 {
		imageURL = item.Images[0].ImageURL
	}
	return model.Product{
		ID:       mp.ProductID,
		Name:     stripHTML(mp.ProductName),
		Brand:    mp.Brand,
		Price:    item.Sellers[0].CommertialOffer.Price,
		Category: categoryFromPaths(mp.Categories),
		Store:    model.StoreMasxMenos,
		ImageURL: imageURL,
		EAN:      item.EAN,
		SKU:      mp.ProductID,
		InStock:  item.Sellers[0].CommertialOffer.IsAvailable,
	}, true
}

// categoryFromPaths picks the most specific segment of the first
// slash-delimited category path, e.g. "/Abarrotes/Arroz/" -> "Arroz".
func categoryFromPaths(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	segments := strings.Split(strings.Trim(paths[0], "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// stripHTML drops markup the upstream occasionally embeds in product names
// and descriptions, keeping only text content.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tz.Text())
		}
	}
	return strings.TrimSpace(b.String())
}
