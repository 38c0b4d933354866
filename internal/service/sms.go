package service

import (
	"context"
	"errors"
	"strings"

	"bitwise74/contacts-api/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSMS sends text messages through the Twilio REST API. In test mode
// nothing leaves the process
type TwilioSMS struct {
	client   *twilio.RestClient
	from     string
	testMode bool
}

func NewTwilioSMS(c config.SMS) *TwilioSMS {
	s := &TwilioSMS{
		from:     c.From,
		testMode: c.Mode == "test",
	}

	if !s.testMode {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: c.AccountSID,
			Password: c.AuthToken,
		})
	}

	return s
}

func (t *TwilioSMS) Send(ctx context.Context, to, body string) error {
	to = normalizePhone(to)
	if to == "" {
		return errors.New("no phone number to send to")
	}

	if t.testMode {
		zap.L().Debug("SMS test mode, dropping message", zap.String("to", to))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}

	if resp.Sid != nil {
		zap.L().Debug("SMS queued", zap.String("sid", *resp.Sid))
	}

	return nil
}

// normalizePhone drops the separators Twilio doesn't accept
func normalizePhone(p string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(p)
}
