package services

import (
	"context"
	"errors"
	"os"

	"warrantycare/internal/reminder"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends warranty reminders through Twilio. It implements
// reminder.Channel.
type SMSService struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewSMSService() *SMSService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_PHONE_NUMBER")

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &SMSService{
		client:     client,
		fromNumber: fromNumber,
	}
}

type smsResult struct {
	providerRef string
	err         error
}

// Send delivers one SMS. A Twilio API rejection (invalid number, blocked
// destination) comes back as *reminder.DeliveryError; transport-level
// failures and context expiry come back as plain errors.
func (s *SMSService) Send(ctx context.Context, recipient, body string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	// The Twilio client has no context support; run the call on the side
	// so the caller's timeout still cuts the wait short.
	done := make(chan smsResult, 1)
	go func() {
		resp, err := s.client.Api.CreateMessage(params)
		if err != nil {
			var restErr *twilioclient.TwilioRestError
			if errors.As(err, &restErr) {
				done <- smsResult{err: &reminder.DeliveryError{Detail: restErr.Message}}
				return
			}
			done <- smsResult{err: err}
			return
		}
		ref := ""
		if resp.Sid != nil {
			ref = *resp.Sid
		}
		done <- smsResult{providerRef: ref}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-done:
		return result.providerRef, result.err
	}
}
