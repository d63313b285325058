package types

// SMSInput is the provider-neutral request to create one text message.
// Credentials travel with the request so a single provider client can serve
// any account.
type SMSInput struct {
	AccountID string
	AuthToken SecretString
	From      string
	To        string
	Body      string
}

// MessageStatus is the provider-reported state of a created message.
type MessageStatus string

// Twilio message statuses, see
// https://www.twilio.com/docs/messaging/api/message-resource#message-status-values
const (
	MessageStatusAccepted         MessageStatus = "accepted"
	MessageStatusScheduled        MessageStatus = "scheduled"
	MessageStatusQueued           MessageStatus = "queued"
	MessageStatusSending          MessageStatus = "sending"
	MessageStatusSent             MessageStatus = "sent"
	MessageStatusDelivered        MessageStatus = "delivered"
	MessageStatusReceiving        MessageStatus = "receiving"
	MessageStatusReceived         MessageStatus = "received"
	MessageStatusRead             MessageStatus = "read"
	MessageStatusFailed           MessageStatus = "failed"
	MessageStatusUndelivered      MessageStatus = "undelivered"
	MessageStatusCanceled         MessageStatus = "canceled"
	MessageStatusPartiallyDeliver MessageStatus = "partially_delivered"
)

// acceptedStatuses are the statuses meaning the provider took the outbound
// message in for delivery. Inbound-only statuses are not acceptance.
var acceptedStatuses = map[MessageStatus]struct{}{
	MessageStatusAccepted:  {},
	MessageStatusScheduled: {},
	MessageStatusQueued:    {},
	MessageStatusSending:   {},
	MessageStatusSent:      {},
	MessageStatusDelivered: {},
}

// IsAccepted reports whether the status is in the acceptance set.
func (s MessageStatus) IsAccepted() bool {
	_, ok := acceptedStatuses[s]
	return ok
}

// MessageReceipt is the provider's synchronous answer to a message create call.
type MessageReceipt struct {
	ID           string        `json:"id"`
	Status       MessageStatus `json:"status"`
	ErrorCode    int           `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
