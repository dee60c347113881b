package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/mailjet/mailjet-apiv3-go/v4"
)

type MailjetConfig struct {
	// APIURL is the host only; the SDK appends the versioned send path.
	APIURL      string
	APIKey      string
	APISecret   string
	SenderEmail string
	SenderName  string
	TemplateID  int64
	Timeout     time.Duration
	Breaker     circuitbreaker.Settings
}

type MailjetSender struct {
	cfg     MailjetConfig
	client  *mailjet.Client
	breaker *circuitbreaker.Breaker[struct{}]
}

func NewMailjetSender(cfg MailjetConfig) *MailjetSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	var client *mailjet.Client
	if base := strings.TrimRight(cfg.APIURL, "/"); base != "" {
		client = mailjet.NewMailjetClient(cfg.APIKey, cfg.APISecret, base+"/v3")
	} else {
		client = mailjet.NewMailjetClient(cfg.APIKey, cfg.APISecret)
	}
	client.SetClient(&http.Client{Timeout: cfg.Timeout})

	bs := cfg.Breaker
	// a rejected message is our fault, not Mailjet's
	bs.IsSuccessful = func(err error) bool {
		var feedback *mailjet.APIFeedbackErrorsV31
		return err == nil || errors.As(err, &feedback)
	}

	return &MailjetSender{
		cfg:     cfg,
		client:  client,
		breaker: circuitbreaker.New[struct{}]("mailjet", bs),
	}
}

func (s *MailjetSender) message(msg Message) mailjet.InfoMessagesV31 {
	m := mailjet.InfoMessagesV31{
		From:    &mailjet.RecipientV31{Email: s.cfg.SenderEmail, Name: s.cfg.SenderName},
		To:      &mailjet.RecipientsV31{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject: msg.Subject,
	}
	if msg.ReplyToEmail != "" {
		m.ReplyTo = &mailjet.RecipientV31{Email: msg.ReplyToEmail, Name: msg.ReplyToName}
	}
	// the template is the customer-facing layout; operator mail stays plain text
	if s.cfg.TemplateID > 0 && msg.eventType() == EventOrderConfirmed {
		m.TemplateID = int(s.cfg.TemplateID)
		m.TemplateLanguage = true
		m.Variables = map[string]interface{}{"content": msg.Body}
	} else {
		m.TextPart = msg.Body
	}
	return m
}

// Send does not take ctx into the SDK call; the client timeout bounds it.
func (s *MailjetSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{s.message(msg)}}
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.SendMailV31(messages)
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	return nil
}
