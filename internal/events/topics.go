package events

// Topic constants for domain events emitted by the shop.
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicContactReceived    = "contact.received"
	TopicCouponApplied      = "coupon.applied"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderStatusChanged,
		TopicContactReceived,
		TopicCouponApplied,
	}
}
