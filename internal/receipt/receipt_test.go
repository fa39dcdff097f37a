package receipt

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

func TestRenderProducesPDF(t *testing.T) {
	order := &models.OrderDetail{
		ID: 1, Code: "HD0001", CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		CreatedBy: "cashier01", Method: models.MethodCash, PaymentStatus: models.PaymentPaid,
		Items: []models.OrderLine{
			{ID: 1, ProductName: "Áo thun", Variant: "M", Quantity: 3, Price: decimal.NewFromInt(100000)},
		},
		Payment: models.PaymentSummary{
			TotalProductPrice: decimal.NewFromInt(300000),
			DiscountAmount:    decimal.NewFromInt(30000),
			TotalOrderPrice:   decimal.NewFromInt(270000),
			CashReceived:      decimal.NewFromInt(300000),
			Change:            decimal.NewFromInt(30000),
		},
	}
	pdf, err := Render(order, "Nine POS")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", pdf[:8])
	}
}

func TestRenderWithoutOrder(t *testing.T) {
	if _, err := Render(nil, "x"); !errors.Is(err, ErrNoOrder) {
		t.Fatalf("err = %v", err)
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0",
		"999":       "999",
		"1000":      "1,000",
		"1250000":   "1,250,000",
		"-30000":    "-30,000",
		"1234.5":    "1,234.50",
		"100000.25": "100,000.25",
	}
	for in, want := range cases {
		if got := Money(decimal.RequireFromString(in)); got != want {
			t.Errorf("Money(%s) = %q, want %q", in, got, want)
		}
	}
}
