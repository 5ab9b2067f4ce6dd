package domain

// Event is a fact recorded by the order. Events are drained with PullEvents
// and published after the unit of work commits.
type Event interface {
	EventType() string
	AggregateID() string
}

type OrderPlaced struct {
	OrderID    string         `json:"order_id"`
	CustomerID string         `json:"customer_id"`
	Total      int64          `json:"total"`
	PaymentFee int64          `json:"payment_fee"`
	Lines      []LineSnapshot `json:"lines"`
}

type PaymentMethodSelected struct {
	OrderID string      `json:"order_id"`
	Method  PaymentKind `json:"method"`
	Label   string      `json:"label"`
	Fee     int64       `json:"fee"`
	Total   int64       `json:"total"`
}

type OrderStatusChanged struct {
	OrderID string      `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// OrderCancelled carries the lines so stock can be handed back.
type OrderCancelled struct {
	OrderID string         `json:"order_id"`
	From    OrderStatus    `json:"from"`
	Lines   []LineSnapshot `json:"lines"`
}

func (e OrderPlaced) EventType() string   { return "OrderPlaced" }
func (e OrderPlaced) AggregateID() string { return e.OrderID }

func (e PaymentMethodSelected) EventType() string   { return "PaymentMethodSelected" }
func (e PaymentMethodSelected) AggregateID() string { return e.OrderID }

func (e OrderStatusChanged) EventType() string   { return "OrderStatusChanged" }
func (e OrderStatusChanged) AggregateID() string { return e.OrderID }

func (e OrderCancelled) EventType() string   { return "OrderCancelled" }
func (e OrderCancelled) AggregateID() string { return e.OrderID }
