package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/atlas-voyages/travelstore/internal/cart"
	"github.com/atlas-voyages/travelstore/internal/catalog"
	"github.com/atlas-voyages/travelstore/internal/models"
)

// CatalogService is the catalog surface the handlers consume.
type CatalogService interface {
	Initialized() bool
	Destinations() []models.Destination
	DestinationBySlug(slug string) (models.Destination, bool)
	FeaturedDestinations() []models.Destination
	PopularDestinations() []models.Destination
	Packages() []models.Package
	PackageByID(id string) (models.Package, bool)
	PackagesByDestination(destinationID string) []models.Package
	Deals() []models.Deal
	Testimonials() []models.Testimonial
	Orders() []models.Order

	AddDestination(ctx context.Context, d models.Destination) models.Destination
	UpdateDestination(ctx context.Context, d models.Destination) bool
	DeleteDestination(ctx context.Context, id string)
	AddPackage(ctx context.Context, p models.Package) models.Package
	UpdatePackage(ctx context.Context, p models.Package) bool
	DeletePackage(ctx context.Context, id string)
	AddDeal(ctx context.Context, d models.Deal) models.Deal
	UpdateDeal(ctx context.Context, d models.Deal) bool
	DeleteDeal(ctx context.Context, id string)

	CreateOrder(ctx context.Context, order models.Order) models.Order
	ExportData() ([]byte, error)
	ImportData(ctx context.Context, r io.Reader) error
	ResetAll(ctx context.Context)
}

// CartService is the cart surface the handlers consume.
type CartService interface {
	AddItem(ctx context.Context, packageID string, qty int)
	RemoveItem(ctx context.Context, packageID string)
	UpdateQuantity(ctx context.Context, packageID string, qty int)
	Clear(ctx context.Context)
	Items() []cart.Line
	Total() float64
	ItemsCount() int
}

// AuthService is the session surface the handlers consume.
type AuthService interface {
	Login(ctx context.Context, email, password string) bool
	Logout(ctx context.Context)
	CurrentUser() (models.User, bool)
	IsAuthenticated() bool
}

// Handler contains HTTP handlers for the API
type Handler struct {
	catalog CatalogService
	cart    CartService
	auth    AuthService
}

// NewHandler creates a new Handler instance
func NewHandler(catalogSvc CatalogService, cartSvc CartService, authSvc AuthService) *Handler {
	return &Handler{
		catalog: catalogSvc,
		cart:    cartSvc,
		auth:    authSvc,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// --- Destinations ---

// ListDestinations handles GET /api/destinations
func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Destinations())
}

// GetDestination handles GET /api/destinations/{slug}
func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	dest, ok := h.catalog.DestinationBySlug(slug)
	if !ok {
		respondError(w, http.StatusNotFound, "Destination not found")
		return
	}
	respondJSON(w, http.StatusOK, dest)
}

// FeaturedDestinations handles GET /api/destinations/featured
func (h *Handler) FeaturedDestinations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.FeaturedDestinations())
}

// PopularDestinations handles GET /api/destinations/popular
func (h *Handler) PopularDestinations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.PopularDestinations())
}

// CreateDestination handles POST /api/admin/destinations
func (h *Handler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var dest models.Destination
	if err := json.NewDecoder(r.Body).Decode(&dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if dest.Name == "" || dest.Slug == "" {
		respondError(w, http.StatusBadRequest, "Name and slug are required")
		return
	}

	created := h.catalog.AddDestination(r.Context(), dest)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateDestination handles PUT /api/admin/destinations/{id}
func (h *Handler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	var dest models.Destination
	if err := json.NewDecoder(r.Body).Decode(&dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dest.ID = mux.Vars(r)["id"]

	if !h.catalog.UpdateDestination(r.Context(), dest) {
		respondError(w, http.StatusNotFound, "Destination not found")
		return
	}
	respondJSON(w, http.StatusOK, dest)
}

// DeleteDestination handles DELETE /api/admin/destinations/{id}.
// Packages referencing the destination are removed in the same write.
func (h *Handler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	h.catalog.DeleteDestination(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// --- Packages ---

// ListPackages handles GET /api/packages with an optional
// ?destination= filter
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	if destID := r.URL.Query().Get("destination"); destID != "" {
		respondJSON(w, http.StatusOK, h.catalog.PackagesByDestination(destID))
		return
	}
	respondJSON(w, http.StatusOK, h.catalog.Packages())
}

// GetPackage handles GET /api/packages/{id}
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, ok := h.catalog.PackageByID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Package not found")
		return
	}
	respondJSON(w, http.StatusOK, pkg)
}

// CreatePackage handles POST /api/admin/packages
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var pkg models.Package
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if pkg.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	created := h.catalog.AddPackage(r.Context(), pkg)
	respondJSON(w, http.StatusCreated, created)
}

// UpdatePackage handles PUT /api/admin/packages/{id}
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	var pkg models.Package
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pkg.ID = mux.Vars(r)["id"]

	if !h.catalog.UpdatePackage(r.Context(), pkg) {
		respondError(w, http.StatusNotFound, "Package not found")
		return
	}
	respondJSON(w, http.StatusOK, pkg)
}

// DeletePackage handles DELETE /api/admin/packages/{id}
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	h.catalog.DeletePackage(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// --- Deals & testimonials ---

// ListDeals handles GET /api/deals
func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Deals())
}

// CreateDeal handles POST /api/admin/deals
func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var deal models.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if deal.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	created := h.catalog.AddDeal(r.Context(), deal)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateDeal handles PUT /api/admin/deals/{id}
func (h *Handler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var deal models.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	deal.ID = mux.Vars(r)["id"]

	if !h.catalog.UpdateDeal(r.Context(), deal) {
		respondError(w, http.StatusNotFound, "Deal not found")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// DeleteDeal handles DELETE /api/admin/deals/{id}
func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	h.catalog.DeleteDeal(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// ListTestimonials handles GET /api/testimonials
func (h *Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Testimonials())
}

// --- Cart ---

// CartResponse is the denormalized cart view returned by cart routes.
type CartResponse struct {
	Items []cart.Line `json:"items"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

func (h *Handler) cartResponse() CartResponse {
	return CartResponse{
		Items: h.cart.Items(),
		Total: h.cart.Total(),
		Count: h.cart.ItemsCount(),
	}
}

// GetCart handles GET /api/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// AddCartItemRequest is the body of POST /api/cart/items.
type AddCartItemRequest struct {
	PackageID string `json:"packageId"`
	Qty       int    `json:"qty"`
}

// AddCartItem handles POST /api/cart/items
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PackageID == "" {
		respondError(w, http.StatusBadRequest, "Package ID is required")
		return
	}

	h.cart.AddItem(r.Context(), req.PackageID, req.Qty)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// UpdateCartItemRequest is the body of PUT /api/cart/items/{id}.
type UpdateCartItemRequest struct {
	Qty int `json:"qty"`
}

// UpdateCartItem handles PUT /api/cart/items/{id}. A quantity of zero
// or less removes the item.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.cart.UpdateQuantity(r.Context(), mux.Vars(r)["id"], req.Qty)
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// RemoveCartItem handles DELETE /api/cart/items/{id}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.cart.RemoveItem(r.Context(), mux.Vars(r)["id"])
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// ClearCart handles DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// --- Orders ---

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	Customer models.Customer `json:"customer"`
}

// Checkout handles POST /api/orders. Line items snapshot the live
// package price and title at purchase time; later catalog edits do not
// touch recorded orders. The cart is cleared after the order is saved.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Customer.Name == "" {
		respondError(w, http.StatusBadRequest, "Customer name is required")
		return
	}
	if req.Customer.Email == "" {
		respondError(w, http.StatusBadRequest, "Customer email is required")
		return
	}

	lines := h.cart.Items()
	if len(lines) == 0 {
		respondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{
			PackageID: line.PackageID,
			Qty:       line.Qty,
		}
		if line.Package != nil {
			item.UnitPrice = line.Package.Price
			item.Title = line.Package.Title
		}
		items = append(items, item)
	}

	order := h.catalog.CreateOrder(r.Context(), models.Order{
		Items:    items,
		Total:    h.cart.Total(),
		Customer: req.Customer,
		Status:   models.OrderStatusPaid,
	})
	h.cart.Clear(r.Context())

	respondJSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/admin/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Orders())
}

// --- Admin data management ---

// ExportData handles GET /api/admin/export
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	raw, err := h.catalog.ExportData()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="travel-agency-data.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// ImportData handles POST /api/admin/import
func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.ImportData(r.Context(), r.Body); err != nil {
		if errors.Is(err, catalog.ErrInvalidFormat) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Data imported"})
}

// ResetData handles POST /api/admin/reset
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	h.catalog.ResetAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// --- Auth ---

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.auth.Login(r.Context(), req.Email, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user, _ := h.auth.CurrentUser()
	respondJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := h.auth.CurrentUser()
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// RequireAuth guards the admin routes. The check is the persisted
// session flag, not a real security boundary.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.IsAuthenticated() {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"initialized": h.catalog.Initialized(),
		"time":        time.Now().Format(time.RFC3339),
	})
}
