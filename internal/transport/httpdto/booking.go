package httpdto

import "time"

// Booking webhook events from the form provider.
const (
	BookingCreated   = "BOOKING_CREATED"
	BookingCancelled = "BOOKING_CANCELLED"
)

// BookingWebhook is the form provider's delivery envelope.
type BookingWebhook struct {
	TriggerEvent string         `json:"triggerEvent"`
	Payload      BookingPayload `json:"payload"`
}

type BookingPayload struct {
	UID       string                     `json:"uid"`
	BookingID int64                      `json:"bookingId"`
	Location  string                     `json:"location"`
	StartTime time.Time                  `json:"startTime"`
	EndTime   time.Time                  `json:"endTime"`
	Length    int                        `json:"length"`
	Responses map[string]BookingResponse `json:"responses"`
	Attendees []BookingAttendee          `json:"attendees"`
}

type BookingResponse struct {
	Value string `json:"value"`
}

type BookingAttendee struct {
	Email string `json:"email"`
}

// Response returns the value of a named form response, or "" when absent.
func (p BookingPayload) Response(name string) string {
	return p.Responses[name].Value
}

// AttendeeEmail returns the first attendee's email, or "".
func (p BookingPayload) AttendeeEmail() string {
	if len(p.Attendees) == 0 {
		return ""
	}
	return p.Attendees[0].Email
}
