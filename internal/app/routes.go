package app

import (
	"github.com/gorilla/mux"
	"github.com/klokku/expensesheets/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Google sign-in
	r.HandleFunc("/api/auth/google/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/auth/google/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/auth/google/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(RequireUser)

	// User
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Sheets proxy
	api.HandleFunc("/sheets/read", deps.SheetsHandler.Read).Methods("POST")
	api.HandleFunc("/sheets/append", deps.SheetsHandler.Append).Methods("POST")
	api.HandleFunc("/sheets/create", deps.SheetsHandler.Create).Methods("POST")

	// Stores
	api.HandleFunc("/stores", deps.StoreHandler.List).Methods("GET")
	api.HandleFunc("/stores", deps.StoreHandler.Create).Methods("POST")
	api.HandleFunc("/stores/{storeId}", deps.StoreHandler.Remove).Methods("DELETE")

	// Dashboard
	api.HandleFunc("/dashboard/{storeId}", deps.ExpenseHandler.GetDashboard).Methods("GET")
	api.HandleFunc("/dashboard/{storeId}/stream", deps.ExpenseHandler.StreamDashboard).Methods("GET")
	api.HandleFunc("/dashboard/{storeId}/export", deps.ExpenseHandler.ExportDashboard).Methods("GET")
}
