package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product - A sellable item as returned by the POS product search.
type Product struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	SellingPrice  decimal.Decimal    `json:"sellingPrice"`
	OriginalPrice decimal.Decimal    `json:"originalPrice"`
	Quantity      int                `json:"quantity"` // available stock
	Attributes    []ProductAttribute `json:"attributes,omitempty"`
	Image         string             `json:"image,omitempty"`
}

type ProductAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Discount types supported by the backend.
const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

// Voucher - An active discount code.
type Voucher struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Type             string          `json:"type"`
	Value            decimal.Decimal `json:"value"`
	MinOrderValue    decimal.Decimal `json:"minOrderValue"`
	MaxDiscountValue decimal.Decimal `json:"maxDiscountValue"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	Description      string          `json:"description,omitempty"`
}
