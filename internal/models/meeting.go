package models

const (
	MeetingPending   = "pending"
	MeetingConfirmed = "confirmed"
	MeetingRejected  = "rejected"
)

// Meeting is a booking between a client and a trainer profile. Payment is
// captured at request time (IsPaid); the escrow is released to the trainer
// only after the client confirms a completed session (IsPaymentReleased).
type Meeting struct {
	ID                  string  `json:"id"`
	TrainerID           string  `json:"trainer_id"`
	UserID              string  `json:"user_id"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	Status              string  `json:"status"`
	CreatedAt           int64   `json:"created_at"`
	TrainerSelectedDate *string `json:"trainer_selected_date,omitempty"`
	TrainerSelectedTime *string `json:"trainer_selected_time,omitempty"`
	IsPaid              bool    `json:"is_paid"`
	AmountPaid          int64   `json:"amount_paid"`
	IsPaymentReleased   bool    `json:"is_payment_released"`
}

// EffectiveDateTime returns the slot the session actually happens at: the
// trainer-selected override when present, otherwise the requested one.
func (m *Meeting) EffectiveDateTime() (string, string) {
	date, tm := m.Date, m.Time
	if m.TrainerSelectedDate != nil && *m.TrainerSelectedDate != "" {
		date = *m.TrainerSelectedDate
	}
	if m.TrainerSelectedTime != nil && *m.TrainerSelectedTime != "" {
		tm = *m.TrainerSelectedTime
	}
	return date, tm
}
