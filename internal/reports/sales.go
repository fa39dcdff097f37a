// Package reports summarises sales over a date range from the backend's
// order list.
package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

var ErrBadRange = errors.New("start date is after end date")

// OrderLister is the order list endpoint.
type OrderLister interface {
	ListOrders(ctx context.Context, f models.OrderFilter) (*models.Page[models.OrderSummary], error)
}

// pageSize and maxPages bound one report run.
const (
	pageSize = 100
	maxPages = 50
)

type CashierTotal struct {
	Cashier string          `json:"cashier"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// SalesReport holds what the dashboard and the assistant show.
type SalesReport struct {
	From         time.Time             `json:"from"`
	To           time.Time             `json:"to"`
	TotalRevenue decimal.Decimal       `json:"totalRevenue"` // paid orders only
	TotalCount   int64                 `json:"totalCount"`
	PaidCount    int64                 `json:"paidCount"`
	ByCashier    []CashierTotal        `json:"byCashier"`
	RecentSales  []models.OrderSummary `json:"recentSales"`
	Truncated    bool                  `json:"truncated,omitempty"`
}

// Sales walks every page of orders created between from and to (inclusive
// dates) and aggregates them.
func Sales(ctx context.Context, l OrderLister, from, to time.Time) (*SalesReport, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrBadRange
	}
	r := &SalesReport{From: from, To: to, TotalRevenue: decimal.Zero}
	byCashier := map[string]*CashierTotal{}

	for page := 0; ; page++ {
		if page == maxPages {
			r.Truncated = true
			break
		}
		res, err := l.ListOrders(ctx, models.OrderFilter{
			From: from, To: to, Page: page, Size: pageSize, Sort: "createdAt,desc",
		})
		if err != nil {
			return nil, err
		}
		for _, o := range res.Content {
			r.TotalCount++
			if len(r.RecentSales) < 10 {
				r.RecentSales = append(r.RecentSales, o)
			}
			if o.PaymentStatus != models.PaymentPaid {
				continue
			}
			r.PaidCount++
			r.TotalRevenue = r.TotalRevenue.Add(o.TotalOrderPrice)

			ct, ok := byCashier[o.CreatedBy]
			if !ok {
				ct = &CashierTotal{Cashier: o.CreatedBy, Revenue: decimal.Zero}
				byCashier[o.CreatedBy] = ct
			}
			ct.Orders++
			ct.Revenue = ct.Revenue.Add(o.TotalOrderPrice)
		}
		if len(res.Content) == 0 || page+1 >= res.TotalPages {
			break
		}
	}

	for _, ct := range byCashier {
		r.ByCashier = append(r.ByCashier, *ct)
	}
	sort.Slice(r.ByCashier, func(i, j int) bool {
		return r.ByCashier[i].Revenue.GreaterThan(r.ByCashier[j].Revenue)
	})
	return r, nil
}
