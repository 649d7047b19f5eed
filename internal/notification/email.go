// Package notification sends best-effort email alerts for grievance
// escalations. Failures are logged by the caller and never fail the
// originating request.
package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer *gomail.Dialer
}

// NewEmailService configures an SMTP sender. host/port default to Gmail
// when unset, matching the deployment this backend ships with.
func NewEmailService(host string, port int, username, password string) *EmailService {
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port == 0 {
		port = 587
	}
	return &EmailService{dialer: gomail.NewDialer(host, port, username, password)}
}

// SendGrievanceAlert notifies an officer about a CRITICAL intake or an
// escalated grievance.
func (e *EmailService) SendGrievanceAlert(to, grievanceNumber, priority, title string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.dialer.Username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Grievance %s requires attention", priority, grievanceNumber))
	m.SetBody("text/plain", fmt.Sprintf(
		"Grievance %s (%s priority) was raised: %s\n\nPlease review it on the dashboard.",
		grievanceNumber, priority, title))
	return e.dialer.DialAndSend(m)
}
