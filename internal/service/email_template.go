package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const verificationSubjectFormat = "Welcome to %s! Verify Your Email to Get Started"

var verificationHTMLTemplate = htmltemplate.Must(htmltemplate.New("verification_html").Parse(`<html>
<body>
  <p>Welcome {{.FirstName}},</p>
  <p>Thank you for signing up with {{.CompanyName}}! To verify your email address and unlock all features, please click the button below:</p>
  <a href="{{.VerificationLink}}">Verify Your Email</a>
</body>
</html>
`))

var verificationTextTemplate = texttemplate.Must(texttemplate.New("verification_text").Parse(`Welcome {{.FirstName}},
Thank you for signing up with {{.CompanyName}}!
To verify your email address and unlock all features, please click the link below:
{{.VerificationLink}}
`))

type verificationEmailData struct {
	FirstName        string
	CompanyName      string
	VerificationLink string
}

// VerificationEmail is a rendered message ready for a provider.
type VerificationEmail struct {
	From    string
	To      string
	Subject string
	HTML    string
	// Text is empty unless the plain-text alternative is enabled.
	Text string
}

func renderVerificationEmail(from, to, firstName, companyName, link string, includeText bool) (*VerificationEmail, error) {
	data := verificationEmailData{
		FirstName:        firstName,
		CompanyName:      companyName,
		VerificationLink: link,
	}

	var html bytes.Buffer
	if err := verificationHTMLTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	email := &VerificationEmail{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf(verificationSubjectFormat, companyName),
		HTML:    html.String(),
	}

	if includeText {
		var text bytes.Buffer
		if err := verificationTextTemplate.Execute(&text, data); err != nil {
			return nil, fmt.Errorf("failed to render text body: %w", err)
		}
		email.Text = text.String()
	}

	return email, nil
}
