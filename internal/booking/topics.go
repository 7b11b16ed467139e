package booking

const (
	TopicBookingCreated  = "booking.created"
	TopicBookingRejected = "booking.rejected"
)

// Partition key = booking_id, so all events for one booking keep order.
func PartitionKey(bookingID string) []byte { return []byte(bookingID) }
