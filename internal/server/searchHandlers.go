package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"groceryhub/internal/model"
	"groceryhub/internal/search"
)

func (s Server) searchAll() http.HandlerFunc {
	type request struct {
		Query string `json:"query"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("searchAll: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			http.Error(w, "Query must not be empty", http.StatusBadRequest)
			return
		}

		res, err := s.Federator.Search(r.Context(), req.Query)
		if err != nil {
			if errors.Is(err, search.ErrSearchUnavailable) {
				s.Logger.Errorf("searchAll: All upstream searches failed for query: %s, err: %v", req.Query, err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("searchAll: Error searching for query: %s, err: %v", req.Query, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, res, http.StatusOK)
	}
}

func (s Server) searchStore() http.HandlerFunc {
	type request struct {
		Query    string `json:"query"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		store := model.NormalizeStore(mux.Vars(r)["store"])
		if store == model.StoreUnknown {
			s.Logger.Debugf("searchStore: Unknown store: %s", mux.Vars(r)["store"])
			http.Error(w, "Unknown store", http.StatusBadRequest)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("searchStore: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			http.Error(w, "Query must not be empty", http.StatusBadRequest)
			return
		}

		res, err := s.Federator.SearchStore(r.Context(), store, req.Query, req.Page, req.PageSize)
		if err != nil {
			if errors.Is(err, search.ErrSearchUnavailable) {
				s.Logger.Errorf("searchStore: Upstream search failed for store: %s, query: %s, err: %v", store, req.Query, err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("searchStore: Error searching store: %s for query: %s, err: %v", store, req.Query, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, res, http.StatusOK)
	}
}

func (s Server) comparePrices() http.HandlerFunc {
	type request struct {
		Query string `json:"query"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("comparePrices: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			http.Error(w, "Query must not be empty", http.StatusBadRequest)
			return
		}

		cmp, err := s.Federator.ComparePrices(r.Context(), req.Query)
		if err != nil {
			if errors.Is(err, search.ErrSearchUnavailable) {
				s.Logger.Errorf("comparePrices: All upstream searches failed for query: %s, err: %v", req.Query, err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("comparePrices: Error comparing prices for query: %s, err: %v", req.Query, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, cmp, http.StatusOK)
	}
}
