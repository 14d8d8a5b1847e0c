package application

import (
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

// shapeRetailerViews reduces whole orders to the retailer's own lines. The
// per-line filter is strict: another retailer's lines in a shared order are
// only ever visible as a count. Orders without any matching line are dropped
// entirely, which also guards against an over-broad store query.
func shapeRetailerViews(orders []*domain.Order, retailerID int64) []types.RetailerOrderView {
	views := make([]types.RetailerOrderView, 0, len(orders))
	for _, order := range orders {
		var own []types.RetailerLineView
		others := 0
		for _, line := range order.Lines {
			if line.RetailerID != retailerID {
				others++
				continue
			}
			own = append(own, types.RetailerLineView{
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				UnitPriceCents: line.UnitPriceCents,
				LineTotalCents: line.LineTotalCents(),
				FarmerID:       line.FarmerID,
			})
		}
		if len(own) == 0 {
			continue
		}
		views = append(views, types.RetailerOrderView{
			OrderID:                order.ID,
			Status:                 order.Status,
			Lines:                  own,
			OtherRetailerLineCount: others,
			CreatedAt:              order.CreatedAt,
		})
	}
	return views
}

// shapeDistributorViews projects assigned orders for the distributor. The
// distributor handles the whole package, so every line is summarized, but
// frozen prices stay off this view.
func shapeDistributorViews(orders []*domain.Order) []types.DistributorOrderView {
	views := make([]types.DistributorOrderView, 0, len(orders))
	for _, order := range orders {
		if order.DistributorID == nil {
			// Unassigned orders must never reach this view; skip rather
			// than leak if a store query ever regresses.
			continue
		}
		lines := make([]types.DistributorLineView, 0, len(order.Lines))
		for _, line := range order.Lines {
			lines = append(lines, types.DistributorLineView{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				RetailerID: line.RetailerID,
			})
		}
		views = append(views, types.DistributorOrderView{
			OrderID:       order.ID,
			Status:        order.Status,
			CustomerID:    order.CustomerID,
			DistributorID: *order.DistributorID,
			TotalCents:    order.TotalCents,
			Lines:         lines,
			UpdatedAt:     order.UpdatedAt,
		})
	}
	return views
}
