package entities

// AlertKind distinguishes hard errors from advisories in the banner
type AlertKind string

const (
	AlertError    AlertKind = "error"
	AlertAdvisory AlertKind = "advisory"
	AlertInfo     AlertKind = "info"
)

// Alert is the single dismissible banner of a session
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// NewErrorAlert creates an error banner
func NewErrorAlert(message string) *Alert {
	return &Alert{Kind: AlertError, Message: message}
}

// NewAdvisoryAlert creates a non-fatal advisory banner
func NewAdvisoryAlert(message string) *Alert {
	return &Alert{Kind: AlertAdvisory, Message: message}
}
