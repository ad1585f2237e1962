package models

import "time"

// Region is one of the six catalog regions a destination belongs to.
type Region string

const (
	RegionEurope     Region = "Europe"
	RegionAsia       Region = "Asia"
	RegionAfrica     Region = "Africa"
	RegionAmericas   Region = "Americas"
	RegionOceania    Region = "Oceania"
	RegionMiddleEast Region = "Middle East"
)

// Coordinates is an optional lat/lng pair for a destination.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FAQ is a question/answer pair shown on a destination page.
type FAQ struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// Destination is a bookable travel destination. The slug is unique,
// URL-safe and human-assigned; it is never regenerated.
type Destination struct {
	ID               string       `json:"id"`
	Slug             string       `json:"slug"`
	Name             string       `json:"name"`
	Country          string       `json:"country"`
	Region           Region       `json:"region"`
	ShortDescription string       `json:"shortDescription"`
	Description      string       `json:"description"`
	Images           []string     `json:"images"`
	Tags             []string     `json:"tags"`
	BestTime         string       `json:"bestTime"`
	PriceFrom        float64      `json:"priceFrom"`
	DurationDays     int          `json:"durationDays"`
	Rating           float64      `json:"rating"`
	Popular          bool         `json:"popular,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	Highlights       []string     `json:"highlights"`
	Included         []string     `json:"included"`
	Excluded         []string     `json:"excluded"`
	FAQ              []FAQ        `json:"faq"`
}

// Package is a bookable trip package. DestinationID references a
// Destination; the link is maintained by application-level cleanup,
// not by the storage layer.
type Package struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	DestinationID   string   `json:"destinationId"`
	Title           string   `json:"title"`
	Price           float64  `json:"price"`
	DurationDays    int      `json:"durationDays"`
	HotelClass      int      `json:"hotelClass"`
	FlightsIncluded bool     `json:"flightsIncluded"`
	Activities      []string `json:"activities"`
}

// Deal is a time-limited promotion, optionally tied to a package
// or destination.
type Deal struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	OriginalPrice float64 `json:"originalPrice"`
	DiscountPrice float64 `json:"discountPrice"`
	Discount      float64 `json:"discount"`
	ValidUntil    string  `json:"validUntil"`
	Image         string  `json:"image"`
	PackageID     string  `json:"packageId,omitempty"`
	DestinationID string  `json:"destinationId,omitempty"`
}

// Testimonial is a customer review, seeded in bulk and read-only.
type Testimonial struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Rating        float64 `json:"rating"`
	Comment       string  `json:"comment"`
	Image         string  `json:"image,omitempty"`
	DestinationID string  `json:"destinationId,omitempty"`
}

// CartItem is one cart entry; there is at most one entry per packageId.
type CartItem struct {
	PackageID string `json:"packageId"`
	Qty       int    `json:"qty"`
}

// OrderItem snapshots one purchased package at time of sale. Unit price
// and title are copied from the live package so later catalog edits do
// not retroactively alter historical orders.
type OrderItem struct {
	PackageID string  `json:"packageId"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	Title     string  `json:"title"`
}

// Customer holds the contact fields captured at checkout.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusPending OrderStatus = "pending"
)

// Order is immutable once created.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Customer  Customer    `json:"customer"`
	Status    OrderStatus `json:"status"`
}

// User is the single admin identity. A persisted user implies an
// authenticated session.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RoleAdmin is the only role the storefront knows.
const RoleAdmin = "admin"
