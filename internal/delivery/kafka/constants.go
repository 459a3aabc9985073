package kafka

const (
	TopicBookingCreated   = "booking.created"
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCancelled = "booking.cancelled"
	TopicBookingExpired   = "booking.expired"

	TopicPaymentSucceeded = "payment.succeeded"
	TopicPaymentFailed    = "payment.failed"

	// Published by the payment provider bridge, consumed by this service.
	TopicPaymentResult = "payment.result"
)
