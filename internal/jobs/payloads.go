package jobs

// SendNotificationPayload is the fully rendered message; the worker does not
// need to look the record up again.
type SendNotificationPayload struct {
	Kind      string `json:"kind"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	RequestID string `json:"requestId,omitempty"` // optional: correlation
}
