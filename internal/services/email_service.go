package services

import (
	"fmt"
	"os"
	"time"

	"warrantycare/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendRegistrationConfirmation emails the customer after a warranty item is
// registered, when an email address is on file
func (s *EmailService) SendRegistrationConfirmation(customer models.Customer, item models.WarrantyItem) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(customer.Name, customer.Email)

	expiry := time.Time(item.ExpiryDate).Format("Jan 2, 2006")
	subject := fmt.Sprintf("Warranty registered: %s", item.ProductName)
	plainContent := fmt.Sprintf("Hello %s, your LG %s is now registered for warranty tracking. Coverage runs until %s. We'll remind you before it expires.",
		customer.Name, item.ProductName, expiry)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your LG <strong>%s</strong> is now registered for warranty tracking.</p><p>Coverage runs until <strong>%s</strong>. We'll remind you before it expires.</p>",
		customer.Name, item.ProductName, expiry)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", customer.Email, response.StatusCode)
	}
	return nil
}
