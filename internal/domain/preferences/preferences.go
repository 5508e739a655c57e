package preferences

import "time"

type Preferences struct {
	UserID            string    `json:"userId"`
	EmailAlerts       bool      `json:"emailAlerts"`
	SMSAlerts         bool      `json:"smsAlerts"`
	PushNotifications bool      `json:"pushNotifications"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Omitted fields fall back to the defaults.
type UpdateRequest struct {
	EmailAlerts       *bool `json:"email_alerts"`
	SMSAlerts         *bool `json:"sms_alerts"`
	PushNotifications *bool `json:"push_notifications"`
}

func Defaults(userID string, now time.Time) Preferences {
	return Preferences{
		UserID:            userID,
		EmailAlerts:       true,
		SMSAlerts:         false,
		PushNotifications: true,
		UpdatedAt:         now,
	}
}

func (r UpdateRequest) Apply(userID string) Preferences {
	p := Defaults(userID, time.Now().UTC())

	if r.EmailAlerts != nil {
		p.EmailAlerts = *r.EmailAlerts
	}
	if r.SMSAlerts != nil {
		p.SMSAlerts = *r.SMSAlerts
	}
	if r.PushNotifications != nil {
		p.PushNotifications = *r.PushNotifications
	}
	return p
}
