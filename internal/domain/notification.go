package domain

// NotificationKind identifies which account email is sent.
type NotificationKind string

const (
	NotificationNewAccount       NotificationKind = "NEW_ACCOUNT"
	NotificationResendNewAccount NotificationKind = "NEW_ACCOUNT_RESEND"
	NotificationAccountConfirmed NotificationKind = "ACCOUNT_CONFIRMED"
)

// Subject returns the email subject line for the kind.
func (k NotificationKind) Subject() string {
	switch k {
	case NotificationNewAccount:
		return "Account confirmation message from SquareIt"
	case NotificationResendNewAccount:
		return "New account confirmation message from SquareIt"
	case NotificationAccountConfirmed:
		return "Welcome to SquareIt - Account confirmed!"
	}
	return ""
}

// NotificationMessage is the payload handed to the delivery pipeline.
type NotificationMessage struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	AccountID  string           `json:"account_id"`
	Email      string           `json:"email"`
	FirstName  string           `json:"first_name"`
	Subject    string           `json:"subject"`
	Token      string           `json:"token"`
	ConfirmURL string           `json:"confirm_url,omitempty"`
	ResendURL  string           `json:"resend_url,omitempty"`
	From       string           `json:"from"`
}
