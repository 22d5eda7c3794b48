package domain

// Order is the brokerage's view of an order. Its lifecycle is owned remotely.
type Order struct {
	ID          string
	ClientID    string
	Symbol      string
	Side        Side
	Type        OrderType
	TimeInForce TimeInForce
	Quantity    int64
	Status      string
}

// OrderRequest is what the refresh loop submits.
type OrderRequest struct {
	Side        Side        `json:"side"`
	Type        OrderType   `json:"type"`
	TimeInForce TimeInForce `json:"time_in_force"`
	Symbol      string      `json:"symbol"`
	Quantity    int64       `json:"qty"`
}
