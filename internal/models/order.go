package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPaid    = "PAID"
	PaymentUnpaid  = "UNPAID"
	PaymentPartial = "PARTIALLY_PAID"

	OrderCompleted = "COMPLETED"
	OrderCancelled = "CANCELLED"

	SourcePOS     = "POS"
	SourceWebsite = "WEBSITE"
)

// PaymentMethod values accepted at checkout.
const (
	MethodCash     = "CASH"
	MethodTransfer = "TRANSFER"
)

// OrderSummary is one row of the order list.
type OrderSummary struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	CreatedAt       time.Time       `json:"createdAt"`
	TotalOrderPrice decimal.Decimal `json:"totalOrderPrice"`
	PaymentStatus   string          `json:"paymentStatus"`
	CreatedBy       string          `json:"createdBy"`
}

// OrderDetail - The server's canonical record for one order.
type OrderDetail struct {
	ID            int64          `json:"id"`
	Code          string         `json:"code"`
	CreatedAt     time.Time      `json:"createdAt"`
	CreatedBy     string         `json:"createdBy"`
	PaymentStatus string         `json:"paymentStatus"`
	OrderStatus   string         `json:"orderStatus"`
	Method        string         `json:"method"`
	Source        string         `json:"source"`
	CustomerName  string         `json:"customerName,omitempty"`
	CustomerPhone string         `json:"customerPhone,omitempty"`
	Items         []OrderLine    `json:"items"`
	Payment       PaymentSummary `json:"payment"`
}

// OrderLine is a line of a persisted order. ID is the orderDetailId.
type OrderLine struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Variant     string          `json:"variant,omitempty"`
	Image       string          `json:"image,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type PaymentSummary struct {
	TotalProductPrice decimal.Decimal `json:"totalProductPrice"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	TotalOrderPrice   decimal.Decimal `json:"totalOrderPrice"`
	CashReceived      decimal.Decimal `json:"cashReceived"`
	Change            decimal.Decimal `json:"change"`
}

// OrderFilter is the query shape shared by the order and return lists.
type OrderFilter struct {
	Search string
	From   time.Time
	To     time.Time
	Page   int
	Size   int
	Sort   string
}

// Page is the paginated envelope used by list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// CreateOrderRequest settles a POS ticket into a persisted order.
type CreateOrderRequest struct {
	Source        string            `json:"source"`
	Lines         []CreateOrderLine `json:"lines"`
	VoucherID     *int64            `json:"voucherId,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	Cashier       string            `json:"cashier,omitempty"`
	Payment       CheckoutPayment   `json:"payment"`
}

type CreateOrderLine struct {
	ProductID int64           `json:"productId"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CheckoutPayment is the {method, amountPaid, change} triple handed to settlement.
type CheckoutPayment struct {
	Method     string          `json:"method"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Change     decimal.Decimal `json:"change"`
}
