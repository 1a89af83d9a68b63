package models

import "time"

// Help request types.
const (
	HelpTypeAssociate = "associate"
	HelpTypeProduct   = "product"
)

// TryOnRequest is an ephemeral customer request tied to a Product.
// ProductName and TimeoutMinutes are snapshots taken at creation time.
type TryOnRequest struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Name           string    `json:"name"`
	Size           string    `json:"size"`
	Selfie         string    `json:"selfie,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	TimeoutMinutes int       `json:"timeout_minutes"`
}

// HelpRequest is an ephemeral call for assistance, optionally carrying a
// catalog snapshot when the customer scanned a barcode.
type HelpRequest struct {
	ID             string       `json:"id"`
	RequestType    string       `json:"request_type"`
	Name           string       `json:"name"`
	Barcode        string       `json:"barcode,omitempty"`
	ProductInfo    *ProductInfo `json:"product_info,omitempty"`
	Selfie         string       `json:"selfie,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	TimeoutMinutes int          `json:"timeout_minutes"`
}

// IsLive reports whether a record created at createdAt with the given timeout
// is still live at now. A record is live strictly before its expiry instant,
// so it is already expired at the exact instant itself.
func IsLive(createdAt time.Time, timeoutMinutes int, now time.Time) bool {
	return now.Before(createdAt.Add(time.Duration(timeoutMinutes) * time.Minute))
}

func (r TryOnRequest) IsLive(now time.Time) bool {
	return IsLive(r.CreatedAt, r.TimeoutMinutes, now)
}

func (r HelpRequest) IsLive(now time.Time) bool {
	return IsLive(r.CreatedAt, r.TimeoutMinutes, now)
}
