package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"groceryhub/internal/list"
	"groceryhub/internal/model"
)

func (s Server) collaboratorAdd() http.HandlerFunc {
	type request struct {
		ListID     string           `json:"list_id"`
		Email      string           `json:"email"`
		Permission model.Permission `json:"permission"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("collaboratorAdd: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("collaboratorAdd: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Permission == "" {
			req.Permission = model.PermissionWrite
		}

		ok := s.Lists.AddCollaborator(r.Context(), req.ListID, uc.identity(), req.Email, req.Permission)
		s.writeJsonResponse(w, response{Success: ok}, http.StatusOK)
	}
}

func (s Server) collaboratorRemove() http.HandlerFunc {
	type request struct {
		ListID string `json:"list_id"`
		Email  string `json:"email"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("collaboratorRemove: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("collaboratorRemove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ok := s.Lists.RemoveCollaborator(r.Context(), req.ListID, uc.identity(), req.Email)
		s.writeJsonResponse(w, response{Success: ok}, http.StatusOK)
	}
}

func (s Server) listJoin() http.HandlerFunc {
	type request struct {
		ListID string `json:"list_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listJoin: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("listJoin: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if uc.email == "" {
			http.Error(w, "Joining a list requires an email", http.StatusBadRequest)
			return
		}

		l, err := s.Lists.JoinViaLink(r.Context(), req.ListID, uc.identity())
		if err != nil {
			if errors.Is(err, list.ErrListNotFound) {
				s.Logger.Debugf("listJoin: ListID: %s not found, err: %v", req.ListID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("listJoin: Error joining ListID: %s for UserID: %s, err: %v", req.ListID, uc.id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, l, http.StatusOK)
	}
}

func (s Server) listPermission() http.HandlerFunc {
	type response struct {
		CanRead  bool `json:"can_read"`
		CanWrite bool `json:"can_write"`
		CanAdmin bool `json:"can_admin"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("listPermission: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		listID := mux.Vars(r)["listID"]

		l, err := s.Lists.GetListByID(r.Context(), listID)
		if err != nil {
			if errors.Is(err, list.ErrListNotFound) {
				s.Logger.Debugf("listPermission: ListID: %s not found, err: %v", listID, err)
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			s.Logger.Errorf("listPermission: Error getting ListID: %s, err: %v", listID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{
			CanRead:  l.PermissionFor(uc.id, uc.email, model.PermissionRead),
			CanWrite: l.PermissionFor(uc.id, uc.email, model.PermissionWrite),
			CanAdmin: l.PermissionFor(uc.id, uc.email, model.PermissionAdmin),
		}, http.StatusOK)
	}
}
