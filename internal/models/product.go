package models

import "time"

// QR sizing modes for the printed in-store sign.
const (
	QRSizePercentage = "percentage"
	QRSizePixels     = "pixels"
)

// Product is a try-on configuration an associate sets up for one physical
// product. timeout_minutes is copied onto requests at creation time; later
// edits never touch existing requests.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Message         string    `json:"message"`
	QRSizeType      string    `json:"qr_size_type"`
	QRSizeValue     int       `json:"qr_size_value"`
	QROffsetX       int       `json:"qr_offset_x"`
	QROffsetY       int       `json:"qr_offset_y"`
	TimeoutMinutes  int       `json:"timeout_minutes"`
	ShowProductInfo bool      `json:"show_product_info"`
	CreatedAt       time.Time `json:"created_at"`
}

// CatalogProduct is a barcode-keyed catalog entry. The barcode is the lookup
// key but uniqueness is not enforced; lookups return the first match.
type CatalogProduct struct {
	ID          string    `json:"id"`
	Barcode     string    `json:"barcode"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Inventory   int       `json:"inventory"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductInfo is the catalog snapshot captured on a help request at creation
// time. It is not live-linked to the catalog entry it came from.
type ProductInfo struct {
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
}
