package models

import "time"

// Stock movement reasons.
const (
	StockReasonOrderPlaced    = "order_placed"
	StockReasonOrderCancelled = "order_cancelled"
	StockReasonRestock        = "restock"
)

// StockMovement is an append-only ledger entry. NewQuantity == PreviousQuantity + QuantityChange.
type StockMovement struct {
	ID               string    `bson:"id" json:"id"`
	ProductID        string    `bson:"product_id" json:"product_id"`
	OrderID          string    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	QuantityChange   int       `bson:"quantity_change" json:"quantity_change"`
	PreviousQuantity int       `bson:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int       `bson:"new_quantity" json:"new_quantity"`
	Reason           string    `bson:"reason" json:"reason"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
