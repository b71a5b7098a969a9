package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"niplan/internal/phone"
)

const mobizonDefaultURL = "https://api.mobizon.kz/service/message/sendsmsmessage"

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	BaseURL  string `yaml:"base_url"`
	DryRun   bool   `yaml:"dry_run"`
}

type SendSMSResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

// MobizonClient is an SMS channel over the Mobizon HTTP API.
type MobizonClient struct {
	APIKey string
	Sender string
	DryRun bool

	url  string
	http *http.Client
	log  *zap.Logger
}

func NewMobizonClient(cfg MobizonConfig, httpClient *http.Client, log *zap.Logger) *MobizonClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	u := cfg.BaseURL
	if u == "" {
		u = mobizonDefaultURL
	}
	return &MobizonClient{
		APIKey: cfg.APIKey,
		Sender: cfg.SenderID,
		DryRun: cfg.DryRun,
		url:    u,
		http:   httpClient,
		log:    log,
	}
}

func (c *MobizonClient) Name() string { return ChannelSMS }

func (c *MobizonClient) Send(ctx context.Context, msg Message) error {
	_, err := c.SendSMS(ctx, msg.PhoneKey, msg.Text)
	return err
}

// SendSMS posts one message. In dry-run mode nothing leaves the process.
func (c *MobizonClient) SendSMS(ctx context.Context, phoneKey, text string) (*SendSMSResponse, error) {
	if c.DryRun || c.APIKey == "dry-run" {
		c.log.Info("[mobizon][dry-run] sms skipped", zap.String("phone", phone.Mask(phoneKey)), zap.String("sender", c.Sender))
		return &SendSMSResponse{}, nil
	}
	if c.APIKey == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {phoneKey},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("mobizon request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mobizon send: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("mobizon read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mobizon http status %d", resp.StatusCode)
	}

	var result SendSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("mobizon parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("mobizon returned error code %d: %s", result.Code, result.Message)
	}
	c.log.Debug("[mobizon][send] accepted", zap.String("phone", phone.Mask(phoneKey)), zap.String("message_id", result.Data.MessageID))
	return &result, nil
}
