package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
	"github.com/yourusername/verification-mailer/internal/domain/repository"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
	"github.com/yourusername/verification-mailer/internal/pubsub"
)

// IssuerConfig holds the values the issuer needs from the process configuration.
type IssuerConfig struct {
	TTL          time.Duration
	LinkScheme   string
	LinkPort     int
	CompanyName  string
	From         string
	IncludeText  bool
	EmailTimeout time.Duration
	QueryTimeout time.Duration
	// PropagateDecodeErrors makes HandleMessage return decode errors instead of swallowing them.
	PropagateDecodeErrors bool
}

// IssueResult describes what happened to one signup event.
type IssueResult struct {
	Delivered bool
	Tracked   bool
	Code      string
	Link      string
}

// IssuerOption настраивает VerificationIssuer.
type IssuerOption func(*VerificationIssuer)

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) IssuerOption {
	return func(i *VerificationIssuer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// WithRandomSource подменяет источник случайных байтов токена.
func WithRandomSource(r io.Reader) IssuerOption {
	return func(i *VerificationIssuer) {
		if r != nil {
			i.random = r
		}
	}
}

// VerificationIssuer отправляет письмо с кодом подтверждения и сохраняет код для найденного пользователя.
type VerificationIssuer struct {
	cfg      IssuerConfig
	email    EmailService
	sessions repository.SessionRunner
	clock    func() time.Time
	random   io.Reader
}

// NewVerificationIssuer создает новый VerificationIssuer
func NewVerificationIssuer(cfg IssuerConfig, email EmailService, sessions repository.SessionRunner, opts ...IssuerOption) *VerificationIssuer {
	if cfg.LinkScheme == "" {
		cfg.LinkScheme = "http"
	}
	if cfg.LinkPort == 0 {
		cfg.LinkPort = 8000
	}
	if cfg.From == "" {
		cfg.From = fmt.Sprintf("noreply@%s.com", cfg.CompanyName)
	}

	i := &VerificationIssuer{
		cfg:      cfg,
		email:    email,
		sessions: sessions,
		clock:    func() time.Time { return time.Now().UTC() },
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HandleMessage is the entry point for every transport. Only decode errors can
// escape, and only when PropagateDecodeErrors is set.
func (i *VerificationIssuer) HandleMessage(ctx context.Context, msg *pubsub.Message) (err error) {
	if msg == nil {
		log.Printf("[VerificationIssuer] received nil message, skipping")
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[VerificationIssuer] panic while handling message %s: %v\n%s", msg.MessageID, r, debug.Stack())
			err = nil
		}
	}()

	event, decodeErr := pubsub.DecodeSignupEvent(msg.Data)
	if decodeErr != nil {
		log.Printf("[VerificationIssuer] Error decoding message %s: %v", msg.MessageID, decodeErr)
		if i.cfg.PropagateDecodeErrors {
			return decodeErr
		}
		return nil
	}

	result, issueErr := i.IssueAndNotify(ctx, event)
	if issueErr != nil {
		log.Printf("[VerificationIssuer] Error processing message %s: %v", msg.MessageID, issueErr)
		return nil
	}
	if result.Tracked {
		log.Printf("[VerificationIssuer] Email sent to %s tracked with verification code (len=%d)", event.Username, len(result.Code))
	}
	return nil
}

// IssueAndNotify generates a code, emails the link and, after a successful
// send, stores the code for the user. A failed send, an unknown user and a
// constraint violation are logged and reported through the result only.
func (i *VerificationIssuer) IssueAndNotify(ctx context.Context, event *entity.SignupEvent) (*IssueResult, error) {
	code, err := generateVerificationCode(i.random, event.Username)
	if err != nil {
		return nil, err
	}
	link := BuildVerificationLink(i.cfg.LinkScheme, event.Hostname, i.cfg.LinkPort, event.VerificationAPI, code)
	result := &IssueResult{Code: code, Link: link}

	email, err := renderVerificationEmail(i.cfg.From, event.Username, event.FirstName, i.cfg.CompanyName, link, i.cfg.IncludeText)
	if err != nil {
		return result, err
	}

	if err := i.send(ctx, email); err != nil {
		var derr *DeliveryError
		if errors.As(err, &derr) && derr.StatusCode != 0 {
			log.Printf("[VerificationIssuer] Failed to send email to %s. Status code: %d", event.Username, derr.StatusCode)
		} else {
			log.Printf("[VerificationIssuer] Failed to send email to %s: %v", event.Username, err)
		}
		return result, nil
	}
	result.Delivered = true

	tracked, err := i.track(ctx, event.Username, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			log.Printf("[VerificationIssuer] Verification for %s not stored: %v", event.Username, err)
			return result, nil
		}
		return result, fmt.Errorf("failed to store verification for %s: %w", event.Username, err)
	}
	result.Tracked = tracked
	return result, nil
}

func (i *VerificationIssuer) send(ctx context.Context, email *VerificationEmail) error {
	if i.cfg.EmailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.EmailTimeout)
		defer cancel()
	}
	err := i.email.SendVerificationEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrDeliveryFailed) {
		err = &DeliveryError{Provider: "unknown", Err: err}
	}
	return err
}

func (i *VerificationIssuer) track(ctx context.Context, username, code string) (bool, error) {
	token, err := ExtractVerificationToken(code)
	if err != nil {
		return false, err
	}

	if i.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.QueryTimeout)
		defer cancel()
	}

	tracked := false
	err = i.sessions.InSession(ctx, func(s repository.Session) error {
		user, err := s.Users().GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				log.Printf("[VerificationIssuer] User not found: %s", username)
				return nil
			}
			return err
		}

		record := entity.NewUserVerification(user.ID, token, i.clock(), i.cfg.TTL)
		if err := s.Verifications().Create(ctx, record); err != nil {
			return err
		}
		tracked = true
		return nil
	})
	return tracked, err
}
