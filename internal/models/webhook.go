package models

// WebhookEventModel is the audit trail of inbound telephony webhook events.
// Rows are written best-effort; a failed insert never affects the response.
type WebhookEventModel struct {
	Base
	Kind        string `json:"kind"         gorm:"index;not null"`
	PhoneNumber string `json:"phone_number"`
	TicketID    string `json:"ticket_id"`
	MessageSID  string `json:"message_sid"`
	Outcome     string `json:"outcome"      gorm:"not null"`
	Payload     string `json:"payload"      gorm:"type:longtext"`
}

func (WebhookEventModel) TableName() string { return "webhook_events" }
