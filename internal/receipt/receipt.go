// Package receipt renders a printable PDF receipt for a settled order.
package receipt

import (
	"bytes"
	"errors"
	"fmt"

	"go-pos-console/internal/models"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

var ErrNoOrder = errors.New("no order to print")

// Paper width of a thermal till roll, in mm.
const rollWidth = 80.0

// Render lays out the order on a roll-width page with the order code as a QR
// code at the bottom so the till can scan it back for returns.
func Render(order *models.OrderDetail, shopName string) ([]byte, error) {
	if order == nil {
		return nil, ErrNoOrder
	}
	qrPNG, err := qrcode.Encode(order.Code, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	height := 120.0 + 6*float64(len(order.Items))
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: rollWidth, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w := rollWidth - 8

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(w, 6, tr(shopName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(w, 4, tr("Order "+order.Code), "", 1, "C", false, 0, "")
	pdf.CellFormat(w, 4, order.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if order.CreatedBy != "" {
		pdf.CellFormat(w, 4, tr("Cashier: "+order.CreatedBy), "", 1, "C", false, 0, "")
	}
	if order.CustomerName != "" {
		pdf.CellFormat(w, 4, tr("Customer: "+order.CustomerName+" "+order.CustomerPhone), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(w*0.5, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(w*0.15, 5, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(w*0.35, 5, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	for _, it := range order.Items {
		name := it.ProductName
		if it.Variant != "" {
			name += " (" + it.Variant + ")"
		}
		amount := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		pdf.CellFormat(w*0.5, 6, tr(truncate(name, 30)), "", 0, "L", false, 0, "")
		pdf.CellFormat(w*0.15, 6, fmt.Sprint(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(w*0.35, 6, Money(amount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)

	p := order.Payment
	row := func(label string, v decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 8)
		pdf.CellFormat(w*0.6, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(w*0.4, 5, Money(v), "", 1, "R", false, 0, "")
	}
	row("Subtotal", p.TotalProductPrice, false)
	if p.DiscountAmount.IsPositive() {
		row("Discount", p.DiscountAmount.Neg(), false)
	}
	row("Total", p.TotalOrderPrice, true)
	if order.Method == models.MethodCash {
		row("Cash received", p.CashReceived, false)
		row("Change", p.Change, false)
	} else if order.Method != "" {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(w, 5, "Paid by "+order.Method, "", 1, "L", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", (rollWidth-30)/2, pdf.GetY()+4, 30, 30, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + 36)
	pdf.SetFont("Arial", "I", 7)
	pdf.CellFormat(w, 4, "Thank you!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Money formats an amount with thousands separators and no fraction when
// the amount is whole, e.g. 1,250,000.
func Money(v decimal.Decimal) string {
	neg := v.IsNegative()
	s := v.Abs().StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var out []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, whole[i])
	}
	res := string(out)
	if frac != "00" {
		res += "." + frac
	}
	if neg {
		res = "-" + res
	}
	return res
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
