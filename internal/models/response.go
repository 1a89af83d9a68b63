package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ProductPayload is the create/update body for a Product. Defaults are
// applied by the handler before binding so absent fields keep them.
type ProductPayload struct {
	Name            string `json:"name" binding:"required"`
	Message         string `json:"message"`
	QRSizeType      string `json:"qr_size_type"`
	QRSizeValue     int    `json:"qr_size_value"`
	QROffsetX       int    `json:"qr_offset_x"`
	QROffsetY       int    `json:"qr_offset_y"`
	TimeoutMinutes  int    `json:"timeout_minutes"`
	ShowProductInfo bool   `json:"show_product_info"`
}

// CatalogPayload is the create/update body for a CatalogProduct.
type CatalogPayload struct {
	Barcode     string  `json:"barcode" binding:"required"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
}
