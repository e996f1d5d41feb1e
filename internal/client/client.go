package client

import (
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v9"

	"groceryhub/internal/model"
)

type Client struct {
	*http.Client
	Redis          *redis.Client
	MaxiPaliURL    string
	MasxMenosURL   string
	PushKey        string
	SearchCacheTTL time.Duration
	Logger         logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// SearchResult is the normalized page returned by either upstream search.
type SearchResult struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	HasMore  bool            `json:"has_more"`
}

func newRequest(method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	setDefaultRequestHeader(r)
	return r, nil
}

func setDefaultRequestHeader(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept", "application/json")
}
