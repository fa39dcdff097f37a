package pos

import (
	"testing"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCashChange(t *testing.T) {
	cases := []struct {
		net, tendered, change int64
		ok                    bool
	}{
		{380000, 400000, 20000, true},
		{380000, 300000, 0, false},
		{380000, 380000, 0, true},
		{0, 0, 0, true},
	}
	for _, tc := range cases {
		co, err := NewCheckout(models.MethodCash, d(tc.net))
		if err != nil {
			t.Fatal(err)
		}
		co.SetTendered(d(tc.tendered))
		if !co.Change().Equal(d(tc.change)) {
			t.Errorf("net=%d tendered=%d change=%s, want %d", tc.net, tc.tendered, co.Change(), tc.change)
		}
		if co.CanSubmit() != tc.ok {
			t.Errorf("net=%d tendered=%d CanSubmit=%v, want %v", tc.net, tc.tendered, co.CanSubmit(), tc.ok)
		}
	}
}

func TestTransferPaysExactly(t *testing.T) {
	co, _ := NewCheckout(models.MethodTransfer, d(380000))
	co.SetTendered(d(500000))
	p := co.Payment()
	if !p.AmountPaid.Equal(d(380000)) || !p.Change.IsZero() || !co.CanSubmit() {
		t.Fatalf("payment = %+v", p)
	}
}

func TestUnknownMethod(t *testing.T) {
	if _, err := NewCheckout("CRYPTO", d(1)); err != ErrUnknownMethod {
		t.Fatalf("err = %v", err)
	}
}
