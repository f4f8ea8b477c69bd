package models

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// validNext encodes the full lifecycle. No backward transitions.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// adminNext is the narrower set an admin status update may perform: forward,
// non-terminal fulfilment steps with no inventory effect.
var adminNext = map[OrderStatus]map[OrderStatus]bool{
	StatusConfirmed:  {StatusProcessing: true},
	StatusProcessing: {StatusShipped: true},
	StatusShipped:    {StatusDelivered: true},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func CanAdminTransition(from, to OrderStatus) bool {
	return adminNext[from][to]
}

func IsTerminal(s OrderStatus) bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

func IsValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}
