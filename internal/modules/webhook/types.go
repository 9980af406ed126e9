package webhook

import (
	"encoding/json"
	"regexp"
)

// EventKind tags the classified webhook variant.
type EventKind string

const (
	KindValidation   EventKind = "validation"
	KindRenewal      EventKind = "renewal"
	KindMissedCall   EventKind = "missed_call"
	KindVoicemail    EventKind = "voicemail"
	KindUnrecognized EventKind = "unrecognized"
)

// renewalThresholdSeconds is how close to expiry a subscription must be
// before its renewal notice triggers a renew call.
const renewalThresholdSeconds = 50

// voicemailEventType is the event-type marker RingCentral sets on voicemail
// telephony events.
const voicemailEventType = "VoiceMail"

// Event is the parsed, tagged form of an inbound webhook payload. Exactly the
// fields of the matched variant are populated.
type Event struct {
	Kind            EventKind
	ValidationToken string
	SubscriptionID  string
	ExpiresIn       float64
	PhoneNumber     string
}

// payload mirrors the nested RingCentral notification shape. Unknown or
// missing fields simply leave their zero values.
type payload struct {
	SubscriptionID string `json:"subscriptionId"`
	Body           struct {
		ExpiresIn *float64 `json:"expiresIn"`
		EventType string   `json:"eventType"`
		Parties   []struct {
			MissedCall bool `json:"missedCall"`
			From       struct {
				PhoneNumber string `json:"phoneNumber"`
			} `json:"from"`
		} `json:"parties"`
	} `json:"body"`
}

// Optional leading +, optional parenthesized 1-4 digit country code, then
// digits, spaces, dashes, dots or slashes.
var phoneNumberPattern = regexp.MustCompile(`^\+?(\(\d{1,4}\))?[0-9 ./-]+$`)

func validPhoneNumber(s string) bool {
	return s != "" && phoneNumberPattern.MatchString(s)
}

// ParseEvent classifies a raw webhook request into one of the five event
// variants. First matching rule wins; a validation token header always takes
// priority, and anything unparseable folds into the unrecognized variant.
func ParseEvent(validationToken string, body []byte) Event {
	if validationToken != "" {
		return Event{Kind: KindValidation, ValidationToken: validationToken}
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{Kind: KindUnrecognized}
	}

	if p.Body.ExpiresIn != nil && *p.Body.ExpiresIn <= renewalThresholdSeconds {
		return Event{
			Kind:           KindRenewal,
			SubscriptionID: p.SubscriptionID,
			ExpiresIn:      *p.Body.ExpiresIn,
		}
	}

	if len(p.Body.Parties) > 0 && p.Body.Parties[0].MissedCall {
		return Event{
			Kind:        KindMissedCall,
			PhoneNumber: p.Body.Parties[0].From.PhoneNumber,
		}
	}

	if p.Body.EventType == voicemailEventType {
		phone := ""
		if len(p.Body.Parties) > 0 {
			phone = p.Body.Parties[0].From.PhoneNumber
		}
		return Event{Kind: KindVoicemail, PhoneNumber: phone}
	}

	return Event{Kind: KindUnrecognized}
}
