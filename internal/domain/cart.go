package domain

// CartLine is the raw session state: a product id and its quantity.
type CartLine struct {
	ProductID int64 `json:"product_id" bson:"product_id"`
	Quantity  int   `json:"quantity" bson:"quantity"`
}

type CartSnapshotLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal int64   `json:"subtotal"`
}

// CartSnapshot is recomputed from live catalog prices on every read.
type CartSnapshot struct {
	Lines         []CartSnapshotLine `json:"lines"`
	TotalQuantity int                `json:"total_quantity"`
	TotalPrice    int64              `json:"total_price"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
