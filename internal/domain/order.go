package domain

import (
	"errors"
	"time"
)

// OrderState is persisted as its integer code.
type OrderState int

const (
	OrderStateUnpaid OrderState = iota
	OrderStatePaid
	OrderStatePreparing
	OrderStateShipped
)

var ErrIllegalTransition = errors.New("illegal transition of order state")

func (s OrderState) Valid() bool {
	return s >= OrderStateUnpaid && s <= OrderStateShipped
}

// String representation (for logging)
func (s OrderState) String() string {
	switch s {
	case OrderStateUnpaid:
		return "UNPAID"
	case OrderStatePaid:
		return "PAID"
	case OrderStatePreparing:
		return "PREPARING"
	case OrderStateShipped:
		return "SHIPPED"
	default:
		return "UNKNOWN"
	}
}

// CanTransitionTo reports whether to is the next state after from. States only
// move forward, one step at a time.
func CanTransitionTo(from, to OrderState) bool {
	return from.Valid() && to.Valid() && to == from+1
}

// OrderLineItem is a snapshot of a cart line taken when the order was placed.
// It does not reference the product row.
type OrderLineItem struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Total       int64  `json:"total"`
}

func NewOrderLineItem(productName string, unitPrice int64, quantity int) OrderLineItem {
	return OrderLineItem{
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Total:       unitPrice * int64(quantity),
	}
}

type Order struct {
	ID           int64
	Reference    string
	CreatedAt    time.Time
	UserID       int64
	CarrierName  string
	CarrierPrice int64
	// Delivery is the address text copied at checkout time.
	Delivery         string
	State            OrderState
	PaymentSessionID *string
	Items            []OrderLineItem
}

func (o *Order) OwnedBy(userID int64) bool {
	return o != nil && userID > 0 && o.UserID == userID
}

func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Total
	}
	return total
}

// Total includes the carrier price.
func (o *Order) Total() int64 {
	return o.ItemsTotal() + o.CarrierPrice
}

func (o *Order) IsPaid() bool {
	return o.State >= OrderStatePaid
}
