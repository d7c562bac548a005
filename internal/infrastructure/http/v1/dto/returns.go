package dto

import (
	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/sales/salereturn"
)

// ReturnItemRequest is one {product, quantity} pair of a return request.
type ReturnItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// ProcessReturnRequest is the payload of POST /returns.
type ProcessReturnRequest struct {
	BillID string              `json:"bill_id" binding:"required"`
	Items  []ReturnItemRequest `json:"items" binding:"required"`
	Reason string              `json:"reason"`
}

// ToDomain converts the wire request into the domain request,
// validating identifier formats.
func (r *ProcessReturnRequest) ToDomain() (*salereturn.ProcessRequest, error) {
	billID, err := id.Parse(r.BillID)
	if err != nil {
		return nil, apperror.NewValidation("invalid bill_id")
	}

	items := make([]salereturn.ReturnItem, 0, len(r.Items))
	for i, it := range r.Items {
		productID, err := id.Parse(it.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product_id").WithDetail("item", i)
		}
		items = append(items, salereturn.ReturnItem{
			ProductID: productID,
			Quantity:  it.Quantity,
		})
	}

	return &salereturn.ProcessRequest{
		BillID: billID,
		Items:  items,
		Reason: r.Reason,
	}, nil
}
