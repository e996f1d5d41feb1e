package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)
	r.NotFoundHandler = s.loggingMw(s.notFoundHandler())

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/user/register", s.userRegister()).Methods(http.MethodPost)
	api.HandleFunc("/user/login", s.userLogin()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/logout", s.userLogout()).Methods(http.MethodPost)
	userAPI.HandleFunc("/info", s.userInfo()).Methods(http.MethodPost)
	userAPI.PathPrefix("").Handler(s.notFoundHandler())

	searchAPI := api.PathPrefix("/search").Subrouter()
	searchAPI.Use(s.authMw)
	searchAPI.HandleFunc("", s.searchAll()).Methods(http.MethodPost)
	searchAPI.HandleFunc("/{store}", s.searchStore()).Methods(http.MethodPost)
	searchAPI.PathPrefix("").Handler(s.notFoundHandler())

	compareAPI := api.PathPrefix("/compare").Subrouter()
	compareAPI.Use(s.authMw)
	compareAPI.HandleFunc("", s.comparePrices()).Methods(http.MethodPost)

	productsAPI := api.PathPrefix("/products").Subrouter()
	productsAPI.Use(s.authMw)
	productsAPI.HandleFunc("", s.userProducts()).Methods(http.MethodGet)

	listAPI := api.PathPrefix("/list").Subrouter()
	listAPI.Use(s.authMw)
	listAPI.HandleFunc("/get", s.listGetAll()).Methods(http.MethodGet)
	listAPI.HandleFunc("/get/{listID}", s.listGetOne()).Methods(http.MethodGet)
	listAPI.HandleFunc("/create", s.listCreate()).Methods(http.MethodPost)
	listAPI.HandleFunc("/default", s.listDefault()).Methods(http.MethodGet)
	listAPI.HandleFunc("/item/add", s.listItemAdd()).Methods(http.MethodPost)
	listAPI.HandleFunc("/item/update", s.listItemUpdate()).Methods(http.MethodPost)
	listAPI.HandleFunc("/item/check", s.listItemCheck()).Methods(http.MethodPost)
	listAPI.HandleFunc("/item/remove", s.listItemRemove()).Methods(http.MethodPost)
	listAPI.HandleFunc("/collaborator/add", s.collaboratorAdd()).Methods(http.MethodPost)
	listAPI.HandleFunc("/collaborator/remove", s.collaboratorRemove()).Methods(http.MethodPost)
	listAPI.HandleFunc("/join", s.listJoin()).Methods(http.MethodPost)
	listAPI.HandleFunc("/permission/{listID}", s.listPermission()).Methods(http.MethodGet)
	listAPI.PathPrefix("").Handler(s.notFoundHandler())

	return r
}
