package types

import "testing"

func TestMessageStatus_IsAccepted(t *testing.T) {
	accepted := []MessageStatus{
		MessageStatusAccepted,
		MessageStatusScheduled,
		MessageStatusQueued,
		MessageStatusSending,
		MessageStatusSent,
		MessageStatusDelivered,
	}
	for _, s := range accepted {
		if !s.IsAccepted() {
			t.Errorf("%q should be accepted", s)
		}
	}

	rejected := []MessageStatus{
		MessageStatusFailed,
		MessageStatusUndelivered,
		MessageStatusCanceled,
		MessageStatusPartiallyDeliver,
		MessageStatusReceived,
		MessageStatusReceiving,
		MessageStatusRead,
		"",
		"QUEUED",
		"something_new",
	}
	for _, s := range rejected {
		if s.IsAccepted() {
			t.Errorf("%q should not be accepted", s)
		}
	}
}
