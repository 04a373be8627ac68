package domain

// OrderStatus represents the lifecycle stage of an order.
type OrderStatus string

// List of order statuses in lifecycle order.
const (
	StatusPending        OrderStatus = "pending"
	StatusApproved       OrderStatus = "approved"
	StatusProcessing     OrderStatus = "processing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// lifecycle holds the forward order; cancelled sits outside of it.
var lifecycle = [...]OrderStatus{
	StatusPending,
	StatusApproved,
	StatusProcessing,
	StatusOutForDelivery,
	StatusShipped,
	StatusDelivered,
}

var trackingMessages = map[OrderStatus]string{
	StatusPending:        "Order Placed",
	StatusApproved:       "Order Confirmed",
	StatusProcessing:     "Preparing for Shipment",
	StatusOutForDelivery: "Out for Delivery",
	StatusShipped:        "In Transit",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// Valid checks if the OrderStatus is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := trackingMessages[s]
	return ok
}

// Terminal reports whether no further transitions or location updates are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Rank returns the position of the status in the lifecycle, or -1 for cancelled and unknown values.
func (s OrderStatus) Rank() int {
	for i, v := range lifecycle {
		if v == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether an order in status s may move to next.
// Forward moves may skip steps, a same-status update is allowed, and
// cancellation is allowed from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.Rank() >= s.Rank()
}

// TrackingMessage returns the human-readable tracking message for the status.
func (s OrderStatus) TrackingMessage() string {
	return trackingMessages[s]
}
