package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"niplan/internal/phone"
)

type TwilioConfig struct {
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	WhatsAppFrom   string `yaml:"whatsapp_from"`
	SMSFrom        string `yaml:"sms_from"`
	OTPTemplateSID string `yaml:"otp_template_sid"`
}

func (c TwilioConfig) Enabled() bool { return c.AccountSID != "" && c.AuthToken != "" }

// MessageCreator is the part of the Twilio REST API the channels use.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

func NewTwilioAPI(cfg TwilioConfig) MessageCreator {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return client.Api
}

type TwilioChannel struct {
	api         MessageCreator
	from        string
	whatsapp    bool
	templateSID string
}

// NewTwilioWhatsApp sends through the WhatsApp sender. OTP messages use the approved
// template when templateSID is set.
func NewTwilioWhatsApp(api MessageCreator, from, templateSID string) *TwilioChannel {
	return &TwilioChannel{api: api, from: from, whatsapp: true, templateSID: templateSID}
}

func NewTwilioSMS(api MessageCreator, from string) *TwilioChannel {
	return &TwilioChannel{api: api, from: from}
}

func (t *TwilioChannel) Name() string {
	if t.whatsapp {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

func (t *TwilioChannel) address(number string) string {
	if t.whatsapp {
		return "whatsapp:" + number
	}
	return number
}

func (t *TwilioChannel) params(msg Message) (*twilioApi.CreateMessageParams, error) {
	p := &twilioApi.CreateMessageParams{}
	p.SetTo(t.address(phone.E164(msg.PhoneKey)))
	p.SetFrom(t.address(t.from))
	if t.whatsapp && t.templateSID != "" && msg.Code != "" {
		vars, err := json.Marshal(map[string]string{"1": msg.Code})
		if err != nil {
			return nil, err
		}
		p.SetContentSid(t.templateSID)
		p.SetContentVariables(string(vars))
		return p, nil
	}
	p.SetBody(msg.Text)
	return p, nil
}

func (t *TwilioChannel) Send(ctx context.Context, msg Message) error {
	if t == nil || t.api == nil || t.from == "" {
		return ErrNotConfigured
	}
	p, err := t.params(msg)
	if err != nil {
		return fmt.Errorf("twilio %s: %w", t.Name(), err)
	}
	return runWithContext(ctx, func() error {
		resp, err := t.api.CreateMessage(p)
		if err != nil {
			return fmt.Errorf("twilio %s: %w", t.Name(), err)
		}
		if resp != nil && resp.ErrorCode != nil {
			return fmt.Errorf("twilio %s: error code %d", t.Name(), *resp.ErrorCode)
		}
		return nil
	})
}
