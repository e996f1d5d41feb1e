package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"groceryhub/internal/list"
	"groceryhub/internal/model"
)

func (s Server) listGetAll() http.HandlerFunc {
	type response struct {
		Lists []model.GroceryList `json:"lists"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listGetAll: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ls, err := s.Lists.GetUserLists(r.Context(), uc.id)
		if err != nil {
			s.Logger.Errorf("listGetAll: Error getting lists for UserID: %s, err: %v", uc.id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ls == nil {
			ls = []model.GroceryList{}
		}
		s.writeJsonResponse(w, response{Lists: ls}, http.StatusOK)
	}
}

func (s Server) listGetOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listGetOne: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		listID := mux.Vars(r)["listID"]

		l, err := s.Lists.GetListByID(r.Context(), listID)
		if err != nil {
			if errors.Is(err, list.ErrListNotFound) {
				s.Logger.Debugf("listGetOne: ListID: %s not found, err: %v", listID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("listGetOne: Error getting ListID: %s, err: %v", listID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !l.PermissionFor(uc.id, uc.email, model.PermissionRead) {
			s.Logger.Debugf("listGetOne: Permission denied for UserID: %s on ListID: %s", uc.id, listID)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		s.writeJsonResponse(w, l, http.StatusOK)
	}
}

func (s Server) listCreate() http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listCreate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listCreate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		l, err := s.Lists.CreateList(r.Context(), uc.id, strings.TrimSpace(req.Name))
		if err != nil {
			s.Logger.Errorf("listCreate: Error creating list for UserID: %s, err: %v", uc.id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, l, http.StatusCreated)
	}
}

func (s Server) listDefault() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listDefault: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		l := s.Lists.GetOrCreateDefaultList(r.Context(), uc.id)
		s.writeJsonResponse(w, l, http.StatusOK)
	}
}

func (s Server) userProducts() http.HandlerFunc {
	type response struct {
		Products []model.Product `json:"products"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userProducts: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ps, err := s.Lists.GetUserProducts(r.Context(), uc.id)
		if err != nil {
			s.Logger.Errorf("userProducts: Error getting products for UserID: %s, err: %v", uc.id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ps == nil {
			ps = []model.Product{}
		}
		s.writeJsonResponse(w, response{Products: ps}, http.StatusOK)
	}
}

func (s Server) listItemAdd() http.HandlerFunc {
	type request struct {
		ListID   string        `json:"list_id"`
		Product  model.Product `json:"product"`
		Quantity int           `json:"quantity"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listItemAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listItemAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if req.Product.ID == "" || req.Product.Name == "" {
			http.Error(w, "Product must have an ID and a name", http.StatusBadRequest)
			return
		}
		if !s.Lists.CheckListPermission(r.Context(), req.ListID, uc.identity(), model.PermissionWrite) {
			s.Logger.Debugf("listItemAdd: Permission denied for UserID: %s on ListID: %s", uc.id, req.ListID)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		res := s.Lists.AddProductToList(r.Context(), req.ListID, uc.identity(), req.Product, req.Quantity)
		statusCode := http.StatusOK
		if !res.Success {
			statusCode = http.StatusUnprocessableEntity
		}
		s.writeJsonResponse(w, res, statusCode)
	}
}

func (s Server) listItemUpdate() http.HandlerFunc {
	type request struct {
		ListID   string `json:"list_id"`
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listItemUpdate: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listItemUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ok := s.Lists.UpdateItemQuantity(r.Context(), req.ListID, uc.identity(), req.ItemID, req.Quantity)
		s.writeJsonResponse(w, response{Success: ok}, http.StatusOK)
	}
}

func (s Server) listItemCheck() http.HandlerFunc {
	type request struct {
		ListID  string `json:"list_id"`
		ItemID  string `json:"item_id"`
		Checked bool   `json:"checked"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listItemCheck: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listItemCheck: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ok := s.Lists.SetItemChecked(r.Context(), req.ListID, uc.identity(), req.ItemID, req.Checked)
		s.writeJsonResponse(w, response{Success: ok}, http.StatusOK)
	}
}

func (s Server) listItemRemove() http.HandlerFunc {
	type request struct {
		ListID string `json:"list_id"`
		ItemID string `json:"item_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listItemRemove: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listItemRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ok := s.Lists.RemoveItemFromList(r.Context(), req.ListID, uc.identity(), req.ItemID)
		s.writeJsonResponse(w, response{Success: ok}, http.StatusOK)
	}
}
