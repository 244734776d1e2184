package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/resend/resend-go/v2"
	"github.com/wneessen/go-mail"

	"github.com/yourusername/verification-mailer/internal/config"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email *VerificationEmail) error
}

// DeliveryError описывает отказ провайдера. StatusCode равен 0, если ответ не был получен.
type DeliveryError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool {
	return target == apperrors.ErrDeliveryFailed
}

// NewEmailServiceFromConfig выбирает провайдера по EMAIL_PROVIDER.
func NewEmailServiceFromConfig(cfg config.EmailConfig) (EmailService, error) {
	switch cfg.Provider {
	case "mailgun", "":
		return NewMailgunEmailService(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase)
	case "resend":
		return NewResendEmailService(cfg.ResendAPIKey)
	case "smtp":
		return NewSMTPEmailService(cfg)
	case "noop":
		return &NoopEmailService{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown email provider %q", apperrors.ErrValidation, cfg.Provider)
	}
}

// NoopEmailService only logs. Used for local runs.
type NoopEmailService struct{}

func (s *NoopEmailService) SendVerificationEmail(ctx context.Context, email *VerificationEmail) error {
	log.Printf("[EmailService] noop send verification email to=%s subject=%q", email.To, email.Subject)
	return nil
}

// MailgunEmailService sends emails via the Mailgun messages API.
type MailgunEmailService struct {
	mg mailgun.Mailgun
}

// NewMailgunEmailService создает клиента Mailgun. apiBase переопределяет адрес API (EU регион, тесты).
func NewMailgunEmailService(domain, apiKey, apiBase string) (*MailgunEmailService, error) {
	if domain == "" {
		return nil, fmt.Errorf("mailgun domain is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("mailgun api key is required")
	}
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	mg.SetClient(&http.Client{Transport: &statusTransport{base: http.DefaultTransport}})
	return &MailgunEmailService{mg: mg}, nil
}

// statusRecorder получает HTTP статус ответа провайдера для одного вызова Send.
type statusRecorder struct {
	code int
}

type statusRecorderKey struct{}

// statusTransport записывает статус ответа в statusRecorder из контекста запроса.
// mailgun-go считает успехом 200, 202 и 204, а доставкой считается только 200.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil {
		if rec, ok := req.Context().Value(statusRecorderKey{}).(*statusRecorder); ok {
			rec.code = resp.StatusCode
		}
	}
	return resp, err
}

func (s *MailgunEmailService) SendVerificationEmail(ctx context.Context, email *VerificationEmail) error {
	if email.To == "" {
		return &DeliveryError{Provider: "mailgun", Err: errors.New("recipient is empty")}
	}

	m := s.mg.NewMessage(email.From, email.Subject, email.Text, email.To)
	m.SetHtml(email.HTML)

	rec := &statusRecorder{}
	_, id, err := s.mg.Send(context.WithValue(ctx, statusRecorderKey{}, rec), m)
	if err != nil {
		derr := &DeliveryError{Provider: "mailgun", Err: err}
		var unexpected *mailgun.UnexpectedResponseError
		if errors.As(err, &unexpected) {
			derr.StatusCode = unexpected.Actual
		} else {
			derr.StatusCode = rec.code
		}
		return derr
	}
	if rec.code != http.StatusOK {
		return &DeliveryError{
			Provider:   "mailgun",
			StatusCode: rec.code,
			Err:        fmt.Errorf("unexpected status %d for message id=%s", rec.code, id),
		}
	}

	log.Printf("[EmailService] mailgun accepted message id=%s to=%s", id, email.To)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	client *resend.Client
}

func NewResendEmailService(apiKey string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	return &ResendEmailService{client: resend.NewClient(apiKey)}, nil
}

func (s *ResendEmailService) SendVerificationEmail(ctx context.Context, email *VerificationEmail) error {
	params := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	// Повторов нет: неудачная отправка только логируется вызывающим кодом.
	resp, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}

	log.Printf("[EmailService] resend accepted message id=%s to=%s", resp.Id, email.To)
	return nil
}

// SMTPEmailService sends emails through a plain SMTP relay.
type SMTPEmailService struct {
	client *mail.Client
	host   string
}

func NewSMTPEmailService(cfg config.EmailConfig) (*SMTPEmailService, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp host is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(timeout),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	if cfg.SMTPTLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPEmailService{client: client, host: cfg.SMTPHost}, nil
}

func (s *SMTPEmailService) SendVerificationEmail(ctx context.Context, email *VerificationEmail) error {
	msg, err := buildSMTPMessage(email)
	if err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}
	log.Printf("[EmailService] smtp relay %s accepted message to=%s", s.host, email.To)
	return nil
}

func buildSMTPMessage(email *VerificationEmail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(email.Subject)

	if email.Text != "" {
		msg.SetBodyString(mail.TypeTextPlain, email.Text)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	} else {
		msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	}
	return msg, nil
}
