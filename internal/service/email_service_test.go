package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-mailer/internal/config"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
)

func testEmail() *VerificationEmail {
	return &VerificationEmail{
		From:    "noreply@acme.com",
		To:      "jane@example.com",
		Subject: "Welcome to acme! Verify Your Email to Get Started",
		HTML:    "<p>hi</p>",
	}
}

func TestMailgunEmailService_Success(t *testing.T) {
	var gotPath, gotUser, gotTo, gotSubject, gotHTML string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		gotTo = r.FormValue("to")
		gotSubject = r.FormValue("subject")
		gotHTML = r.FormValue("html")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<20240101.1@mg.acme.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	svc, err := NewMailgunEmailService("mg.acme.com", "key-test", srv.URL+"/v3")
	require.NoError(t, err)

	require.NoError(t, svc.SendVerificationEmail(context.Background(), testEmail()))

	assert.True(t, strings.HasSuffix(gotPath, "/mg.acme.com/messages"), gotPath)
	assert.Equal(t, "api", gotUser)
	assert.Equal(t, "jane@example.com", gotTo)
	assert.Equal(t, "Welcome to acme! Verify Your Email to Get Started", gotSubject)
	assert.Equal(t, "<p>hi</p>", gotHTML)
}

func TestMailgunEmailService_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`Forbidden`))
	}))
	defer srv.Close()

	svc, err := NewMailgunEmailService("mg.acme.com", "bad-key", srv.URL+"/v3")
	require.NoError(t, err)

	err = svc.SendVerificationEmail(context.Background(), testEmail())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "mailgun", derr.Provider)
	assert.Equal(t, http.StatusUnauthorized, derr.StatusCode)
}

func TestMailgunEmailService_OnlyStatusOKIsDelivered(t *testing.T) {
	for _, status := range []int{http.StatusAccepted, http.StatusNoContent} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"id":"<x@mg.acme.com>","message":"Queued"}`))
			}))
			defer srv.Close()

			svc, err := NewMailgunEmailService("mg.acme.com", "key-test", srv.URL+"/v3")
			require.NoError(t, err)

			err = svc.SendVerificationEmail(context.Background(), testEmail())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)

			var derr *DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, status, derr.StatusCode)
		})
	}
}

func TestNewMailgunEmailService_RequiresCredentials(t *testing.T) {
	_, err := NewMailgunEmailService("", "key", "")
	assert.Error(t, err)
	_, err = NewMailgunEmailService("mg.acme.com", "", "")
	assert.Error(t, err)
}

func TestNewEmailServiceFromConfig(t *testing.T) {
	svc, err := NewEmailServiceFromConfig(config.EmailConfig{Provider: "noop"})
	require.NoError(t, err)
	assert.IsType(t, &NoopEmailService{}, svc)
	assert.NoError(t, svc.SendVerificationEmail(context.Background(), testEmail()))

	svc, err = NewEmailServiceFromConfig(config.EmailConfig{Provider: "mailgun", MailgunDomain: "mg.acme.com", MailgunAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MailgunEmailService{}, svc)

	svc, err = NewEmailServiceFromConfig(config.EmailConfig{Provider: "resend", ResendAPIKey: "re_test"})
	require.NoError(t, err)
	assert.IsType(t, &ResendEmailService{}, svc)

	svc, err = NewEmailServiceFromConfig(config.EmailConfig{Provider: "smtp", SMTPHost: "localhost", SMTPPort: 1025})
	require.NoError(t, err)
	assert.IsType(t, &SMTPEmailService{}, svc)

	_, err = NewEmailServiceFromConfig(config.EmailConfig{Provider: "pigeon"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildSMTPMessage(t *testing.T) {
	email := testEmail()
	email.Text = "hi"

	msg, err := buildSMTPMessage(email)
	require.NoError(t, err)
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "jane@example.com")

	email.To = "not an address"
	_, err = buildSMTPMessage(email)
	assert.Error(t, err)
}
