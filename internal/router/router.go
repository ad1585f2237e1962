package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/atlas-voyages/travelstore/internal/handlers"
	"github.com/atlas-voyages/travelstore/internal/websocket"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, hub *websocket.Hub) *mux.Router {
	r := mux.NewRouter()

	// CORS middleware
	r.Use(corsMiddleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Catalog (fixed paths before the slug catch-all)
	api.HandleFunc("/destinations", h.ListDestinations).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/destinations/featured", h.FeaturedDestinations).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/destinations/popular", h.PopularDestinations).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/destinations/{slug}", h.GetDestination).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/packages", h.ListPackages).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/packages/{id}", h.GetPackage).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/deals", h.ListDeals).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/testimonials", h.ListTestimonials).Methods(http.MethodGet, http.MethodOptions)

	// Cart
	api.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/cart/items", h.AddCartItem).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/cart/items/{id}", h.UpdateCartItem).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/cart/items/{id}", h.RemoveCartItem).Methods(http.MethodDelete, http.MethodOptions)

	// Checkout
	api.HandleFunc("/orders", h.Checkout).Methods(http.MethodPost, http.MethodOptions)

	// Auth
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/session", h.Session).Methods(http.MethodGet, http.MethodOptions)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireAuth)
	admin.HandleFunc("/destinations", h.CreateDestination).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/destinations/{id}", h.UpdateDestination).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/destinations/{id}", h.DeleteDestination).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/packages", h.CreatePackage).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/packages/{id}", h.UpdatePackage).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/packages/{id}", h.DeletePackage).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/deals", h.CreateDeal).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/deals/{id}", h.UpdateDeal).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/deals/{id}", h.DeleteDeal).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/export", h.ExportData).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/import", h.ImportData).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/reset", h.ResetData).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket change feed
	api.HandleFunc("/ws", hub.HandleWebSocket)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
