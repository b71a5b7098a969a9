package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"niplan/internal/phone"
)

const DefaultChannelTimeout = 5 * time.Second

// Delivery outcomes reported to clients.
const (
	DeliverySent   = "sent"
	DeliveryManual = "manual"
	DeliveryFailed = "failed"
)

// Result describes how an OTP left the system.
type Result struct {
	Channel  string
	Delivery string
	Errors   map[string]error
}

func (r Result) Delivered() bool { return r.Delivery != DeliveryFailed }

// Gateway tries direct channels in order, then the relay. No retries.
type Gateway struct {
	direct   []Channel
	relay    Channel
	alerters []Alerter
	timeout  time.Duration
	log      *zap.Logger
}

func NewGateway(log *zap.Logger, timeout time.Duration, direct ...Channel) *Gateway {
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{direct: direct, timeout: timeout, log: log}
}

func (g *Gateway) WithRelay(ch Channel) *Gateway {
	g.relay = ch
	return g
}

// WithAlerters registers operator alert sinks used when every channel fails.
func (g *Gateway) WithAlerters(a ...Alerter) *Gateway {
	g.alerters = append(g.alerters, a...)
	return g
}

func (g *Gateway) send(ctx context.Context, ch Channel, msg Message) error {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return ch.Send(cctx, msg)
}

// SendOTP never fails the caller: the outcome is in Result, and a total failure is
// escalated to the operators.
func (g *Gateway) SendOTP(ctx context.Context, phoneKey, code string) Result {
	msg := Message{PhoneKey: phoneKey, Text: OTPText(code), Code: code}
	res := Result{Delivery: DeliveryFailed, Errors: map[string]error{}}

	for _, ch := range g.direct {
		err := g.send(ctx, ch, msg)
		if err == nil {
			res.Channel, res.Delivery = ch.Name(), DeliverySent
			g.log.Info("[notify][otp] delivered", zap.String("phone", phone.Mask(phoneKey)), zap.String("channel", ch.Name()))
			return res
		}
		res.Errors[ch.Name()] = err
		g.log.Warn("[notify][otp] channel failed", zap.String("phone", phone.Mask(phoneKey)), zap.String("channel", ch.Name()), zap.Error(err))
	}

	if g.relay != nil {
		err := g.send(ctx, g.relay, msg)
		if err == nil {
			res.Channel, res.Delivery = g.relay.Name(), DeliveryManual
			g.log.Info("[notify][otp] relayed to operators", zap.String("phone", phone.Mask(phoneKey)))
			return res
		}
		res.Errors[g.relay.Name()] = err
		g.log.Warn("[notify][otp] relay failed", zap.String("phone", phone.Mask(phoneKey)), zap.Error(err))
	}

	g.escalate(ctx, phoneKey, res.Errors)
	return res
}

// SendWelcome uses direct channels only; the relay is for codes.
func (g *Gateway) SendWelcome(ctx context.Context, phoneKey string) error {
	msg := Message{PhoneKey: phoneKey, Text: WelcomeText()}
	var errs []string
	for _, ch := range g.direct {
		if err := g.send(ctx, ch, msg); err != nil {
			errs = append(errs, ch.Name()+": "+err.Error())
			continue
		}
		return nil
	}
	if len(errs) == 0 {
		return ErrNotConfigured
	}
	return fmt.Errorf("%w: %s", ErrAllChannelsFailed, strings.Join(errs, "; "))
}

func (g *Gateway) escalate(ctx context.Context, phoneKey string, errs map[string]error) {
	if len(g.alerters) == 0 {
		g.log.Error("[notify][otp] delivery failed, no operator alert configured", zap.String("phone", phone.Mask(phoneKey)))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "OTP delivery failed for %s\n", phone.Mask(phoneKey))
	if len(errs) == 0 {
		b.WriteString("no delivery channel configured\n")
	}
	for name, err := range errs {
		fmt.Fprintf(&b, "- %s: %v\n", name, err)
	}
	for _, a := range g.alerters {
		actx, cancel := context.WithTimeout(ctx, g.timeout)
		if err := a.Alert(actx, "OTP delivery failed", b.String()); err != nil {
			g.log.Error("[notify][alert] failed", zap.Error(err))
		}
		cancel()
	}
}
