package returns

import (
	"errors"
	"testing"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// paidOrder has 2 × 50000 and 1 × 100000, gross 200000 and net 180000.
func paidOrder() *models.OrderDetail {
	return &models.OrderDetail{
		ID:            77,
		Code:          "HD0077",
		PaymentStatus: models.PaymentPaid,
		OrderStatus:   models.OrderCompleted,
		Items: []models.OrderLine{
			{ID: 1, ProductName: "Socks", Quantity: 2, Price: d(50000)},
			{ID: 2, ProductName: "Cap", Quantity: 1, Price: d(100000)},
		},
		Payment: models.PaymentSummary{
			TotalProductPrice: d(200000),
			DiscountAmount:    d(20000),
			TotalOrderPrice:   d(180000),
		},
	}
}

func TestNewDraftDefaultsToFullReturn(t *testing.T) {
	dr, err := NewDraft(paidOrder())
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range dr.Lines() {
		if l.Quantity != l.MaxQuantity {
			t.Fatalf("line %d defaults to %d of %d", l.OrderDetailID, l.Quantity, l.MaxQuantity)
		}
	}
	if dr.ReturnType() != models.ReturnFull {
		t.Fatalf("type = %s", dr.ReturnType())
	}
}

func TestNewDraftRequiresPaidOrder(t *testing.T) {
	if _, err := NewDraft(nil); !errors.Is(err, ErrNoSourceOrder) {
		t.Fatalf("nil order err = %v", err)
	}
	o := paidOrder()
	o.PaymentStatus = models.PaymentUnpaid
	if _, err := NewDraft(o); !errors.Is(err, ErrOrderNotReturnable) {
		t.Fatalf("unpaid err = %v", err)
	}
}

func TestReturnQuantityClamp(t *testing.T) {
	dr, _ := NewDraft(paidOrder())
	cases := map[int]int{-3: 0, 0: 0, 1: 1, 2: 2, 3: 2, 99: 2}
	for req, want := range cases {
		got, err := dr.SetQuantity(1, req)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("SetQuantity(%d) = %d, want %d", req, got, want)
		}
	}
	if _, err := dr.SetQuantity(999, 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestReturnTypeDerivation(t *testing.T) {
	dr, _ := NewDraft(paidOrder())
	steps := []struct {
		line int64
		qty  int
		want models.ReturnType
	}{
		{1, 1, models.ReturnPartial},
		{1, 2, models.ReturnFull},
		{2, 0, models.ReturnPartial},
		{1, 0, ""},
		{2, 1, models.ReturnPartial},
	}
	for _, s := range steps {
		dr.SetQuantity(s.line, s.qty)
		if got := dr.ReturnType(); got != s.want {
			t.Fatalf("after line %d = %d: type %q, want %q", s.line, s.qty, got, s.want)
		}
	}
}

func TestBuildRejectsEmptySelection(t *testing.T) {
	dr, _ := NewDraft(paidOrder())
	dr.SetQuantity(1, 0)
	dr.SetQuantity(2, 0)
	if _, err := dr.Build(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("err = %v", err)
	}
	var zero Draft
	if _, err := zero.Build(); !errors.Is(err, ErrNoSourceOrder) {
		t.Fatalf("zero draft err = %v", err)
	}
}

func TestRatioFallsBackWithoutTotals(t *testing.T) {
	o := paidOrder()
	o.Payment = models.PaymentSummary{}
	dr, _ := NewDraft(o)
	if !dr.RefundRatio().Equal(d(1)) {
		t.Fatalf("ratio = %s", dr.RefundRatio())
	}
	if p := dr.Preview(); !p.Lines[0].RefundUnitPrice.Equal(d(50000)) {
		t.Fatalf("unscaled price = %s", p.Lines[0].RefundUnitPrice)
	}
}

func TestFullyDiscountedOrderRefundsNothing(t *testing.T) {
	o := paidOrder()
	o.Payment.DiscountAmount = d(200000)
	o.Payment.TotalOrderPrice = decimal.Zero
	dr, _ := NewDraft(o)

	if !dr.RefundRatio().IsZero() {
		t.Fatalf("ratio = %s, want 0", dr.RefundRatio())
	}
	p := dr.Preview()
	if !p.Total.IsZero() || !p.Lines[0].RefundUnitPrice.IsZero() {
		t.Fatalf("preview = %+v", p)
	}
	req, err := dr.Build()
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range req.Lines {
		if !l.ReturnPrice.IsZero() {
			t.Fatalf("line %d refunds %s", l.OrderDetailID, l.ReturnPrice)
		}
	}
}

func TestReasonFlattensToFirstSelectedLine(t *testing.T) {
	dr, _ := NewDraft(paidOrder())
	dr.SetLineReason(1, models.ReasonDefective)
	dr.SetLineReason(2, models.ReasonWrongItem)
	if dr.Reason() != models.ReasonDefective {
		t.Fatalf("reason = %s", dr.Reason())
	}
	dr.SetQuantity(1, 0)
	if dr.Reason() != models.ReasonWrongItem {
		t.Fatalf("reason after deselecting line 1 = %s", dr.Reason())
	}
	if err := dr.SetReason("BOGUS"); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("err = %v", err)
	}
}

func TestEndToEndReturn(t *testing.T) {
	dr, _ := NewDraft(paidOrder())
	dr.SetQuantity(1, 1)

	p := dr.Preview()
	if !p.Ratio.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("ratio = %s", p.Ratio)
	}
	if !p.Lines[0].RefundUnitPrice.Equal(d(45000)) || !p.Lines[1].RefundUnitPrice.Equal(d(90000)) {
		t.Fatalf("unit prices = %s, %s", p.Lines[0].RefundUnitPrice, p.Lines[1].RefundUnitPrice)
	}
	if !p.Total.Equal(d(135000)) {
		t.Fatalf("total = %s", p.Total)
	}

	if err := dr.SetReason(models.ReasonCustomerChangeMind); err != nil {
		t.Fatal(err)
	}
	req, err := dr.Build()
	if err != nil {
		t.Fatal(err)
	}
	if req.OrderID != 77 || req.ReturnType != models.ReturnPartial || req.ReturnReason != models.ReasonCustomerChangeMind {
		t.Fatalf("request = %+v", req)
	}
	if len(req.Lines) != 2 || req.Lines[0].ReturnQuantity != 1 || !req.Lines[0].ReturnPrice.Equal(d(45000)) {
		t.Fatalf("lines = %+v", req.Lines)
	}
}
