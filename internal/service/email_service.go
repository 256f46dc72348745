package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/models"
)

var (
	ErrEmailDisabled = errors.New("email is not configured")
	ErrInvalidEmail  = errors.New("invalid email address")
)

// sesAPI is the part of the SES client the service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service. It is disabled when fromEmail is empty.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, debug), nil
}

func newEmailService(client sesAPI, fromEmail, fromName string, debug bool) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var reportHTML = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Your mistake list</h2>
	{{if .}}
	<table cellpadding="6" style="border-collapse: collapse;">
		<tr><th align="left">Word</th><th align="right">Mistakes</th></tr>
		{{range .}}<tr><td>{{.Word}}</td><td align="right">{{.Count}}</td></tr>
		{{end}}
	</table>
	{{else}}
	<p>No mistakes recorded. Well done!</p>
	{{end}}
	<p style="font-size: 12px; color: #666;">This is an automated email from WordMatch. Please do not reply.</p>
</body>
</html>
`))

// SendMistakeReport mails the ledger, most frequent mistakes first
func (s *EmailService) SendMistakeReport(ctx context.Context, toEmail string, entries []models.MistakeEntry) error {
	if !s.enabled {
		return ErrEmailDisabled
	}
	addr, err := mail.ParseAddress(toEmail)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, toEmail)
	}

	sorted := append([]models.MistakeEntry(nil), entries...)
	models.SortMistakes(sorted)

	var html bytes.Buffer
	if err := reportHTML.Execute(&html, sorted); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	var text strings.Builder
	text.WriteString("Your mistake list\n\n")
	if len(sorted) == 0 {
		text.WriteString("No mistakes recorded. Well done!\n")
	}
	for _, e := range sorted {
		fmt.Fprintf(&text, "%s: %d\n", e.Word, e.Count)
	}
	text.WriteString("\n---\nThis is an automated email from WordMatch. Please do not reply.\n")

	return s.sendEmail(ctx, addr.Address, "Your WordMatch mistake list", html.String(), text.String())
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	ev := log.Info().Str("to", toEmail).Str("subject", subject)
	if s.debug && result.MessageId != nil {
		ev = ev.Str("message_id", *result.MessageId)
	}
	ev.Msg("Email sent")
	return nil
}
