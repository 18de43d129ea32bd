package domain

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the inclusive stock level at or below which a product
// is reported by the low-stock listing.
const LowStockThreshold = 10

// Product is a catalogue item as stored and served by the products API.
type Product struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Material           string          `json:"material"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	DiscountType       string          `json:"discountType"`
	Quantity           int             `json:"quantity"`
	Category           string          `json:"category"`
	Size               string          `json:"size"`
	Colors             []string        `json:"colors"`
	Tags               []string        `json:"tags"`
	ImageURL           *string         `json:"imageUrl"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// IsLowStock reports whether the product is at or below LowStockThreshold.
func (p Product) IsLowStock() bool { return p.Quantity <= LowStockThreshold }

// Image is a binary upload attached to a product create/update request.
// The caller owns Body and closes it once the request is done.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
