package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"assetflow/handlers"
	"assetflow/middleware"
	"assetflow/models"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly    = []string{"GET", "OPTIONS"}
	MethodsPostOnly   = []string{"POST", "OPTIONS"}
	MethodsPutOnly    = []string{"PUT", "OPTIONS"}
	MethodsDeleteOnly = []string{"DELETE", "OPTIONS"}
)

// Route grouping constants
const (
	PathAPI    = "/api"
	PathAuth   = "/api/auth"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router, h *handlers.Handler, auth *middleware.Authenticator) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, h.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc(PathAuth+"/register", h.Register).Methods(MethodsPostOnly...)
	r.HandleFunc(PathAuth+"/login", h.Login).Methods(MethodsPostOnly...)
	r.HandleFunc(PathAuth+"/logout", h.Logout).Methods(MethodsPostOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(auth.Middleware)

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	admin := func(fn http.HandlerFunc) http.Handler { return adminOnly(fn) }

	apiRouter.HandleFunc("/auth/me", h.Me).Methods(MethodsGetOnly...)

	// ====================
	// ASSETS
	// ====================
	// summary/stats must precede {id}
	apiRouter.HandleFunc("/assets/summary/stats", h.AssetSummary).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets", h.ListAssets).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets", h.CreateAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}", h.GetAsset).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}", h.UpdateAsset).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/assets/{id}", h.DeleteAsset).Methods(MethodsDeleteOnly...)
	apiRouter.HandleFunc("/assets/{id}/file/{itemIndex}", h.GetAssetFile).Methods(MethodsGetOnly...)

	// ====================
	// DEPARTMENTS (writes are admin only)
	// ====================
	apiRouter.HandleFunc("/departments", h.ListDepartments).Methods(MethodsGetOnly...)
	apiRouter.Handle("/departments", admin(h.CreateDepartment)).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/departments/{id}", h.GetDepartment).Methods(MethodsGetOnly...)
	apiRouter.Handle("/departments/{id}", admin(h.UpdateDepartment)).Methods(MethodsPutOnly...)
	apiRouter.Handle("/departments/{id}", admin(h.DeleteDepartment)).Methods(MethodsDeleteOnly...)

	// ====================
	// VENDORS
	// ====================
	apiRouter.HandleFunc("/vendors", h.ListVendors).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/vendors", h.CreateVendor).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/vendors/{id}", h.UpdateVendor).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/vendors/{id}", h.DeleteVendor).Methods(MethodsDeleteOnly...)

	// ====================
	// REPORTS
	// ====================
	apiRouter.HandleFunc("/reports", h.GetReport).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/export/{format}", h.ExportReport).Methods(MethodsGetOnly...)

	// ====================
	// AUDIT & LIVE EVENTS
	// ====================
	apiRouter.Handle("/audit", admin(h.GetAuditLogs)).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/events", h.StreamEvents).Methods(MethodsGetOnly...)
}
