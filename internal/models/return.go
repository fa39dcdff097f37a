package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReturnType string

const (
	ReturnFull    ReturnType = "FULL"
	ReturnPartial ReturnType = "PARTIAL"
)

type ReturnReason string

const (
	ReasonCustomerChangeMind ReturnReason = "CUSTOMER_CHANGE_MIND"
	ReasonDefective          ReturnReason = "DEFECTIVE"
	ReasonWrongItem          ReturnReason = "WRONG_ITEM"
	ReasonWrongSize          ReturnReason = "WRONG_SIZE"
	ReasonDamagedInTransit   ReturnReason = "DAMAGED_IN_TRANSIT"
	ReasonOther              ReturnReason = "OTHER"
)

// Valid reports whether r is one of the reason codes the backend accepts.
func (r ReturnReason) Valid() bool {
	switch r {
	case ReasonCustomerChangeMind, ReasonDefective, ReasonWrongItem,
		ReasonWrongSize, ReasonDamagedInTransit, ReasonOther:
		return true
	}
	return false
}

type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "PENDING"
	ReturnCompleted ReturnStatus = "COMPLETED"
	ReturnCancelled ReturnStatus = "CANCELLED"
)

// CreateReturnRequest is the submission payload for a return order.
type CreateReturnRequest struct {
	OrderID      int64              `json:"orderId"`
	ReturnType   ReturnType         `json:"returnType"`
	ReturnReason ReturnReason       `json:"returnReason"`
	Notes        string             `json:"notes,omitempty"`
	Lines        []CreateReturnLine `json:"lines"`
}

type CreateReturnLine struct {
	OrderDetailID  int64           `json:"orderDetailId"`
	ReturnQuantity int             `json:"returnQuantity"`
	ReturnPrice    decimal.Decimal `json:"returnPrice"`
}

// ReturnOrder - A persisted return request as the backend reports it.
type ReturnOrder struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	OrderID      int64           `json:"orderId"`
	OrderCode    string          `json:"orderCode"`
	ReturnType   ReturnType      `json:"returnType"`
	ReturnReason ReturnReason    `json:"returnReason"`
	Status       ReturnStatus    `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	TotalRefund  decimal.Decimal `json:"totalRefund"`
	CreatedAt    time.Time       `json:"createdAt"`
	CreatedBy    string          `json:"createdBy"`
	Lines        []ReturnLine    `json:"lines,omitempty"`
}

type ReturnLine struct {
	ID             int64           `json:"id"`
	OrderDetailID  int64           `json:"orderDetailId"`
	ProductName    string          `json:"productName"`
	ReturnQuantity int             `json:"returnQuantity"`
	ReturnPrice    decimal.Decimal `json:"returnPrice"`
}

// ReturnFilter extends the order filter with return-specific fields.
type ReturnFilter struct {
	OrderFilter
	ReturnType   ReturnType
	ReturnReason ReturnReason
	Status       ReturnStatus
}
