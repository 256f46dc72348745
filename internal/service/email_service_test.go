package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"wordmatch/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendMistakeReport(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@example.com", "WordMatch", true)

	entries := []models.MistakeEntry{{Word: "cat", Count: 1}, {Word: "<dog>", Count: 4}}
	if err := svc.SendMistakeReport(context.Background(), "Kid <kid@example.com>", entries); err != nil {
		t.Fatalf("SendMistakeReport() error = %v", err)
	}
	if len(ses.inputs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(ses.inputs))
	}

	in := ses.inputs[0]
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "kid@example.com" {
		t.Errorf("ToAddresses = %v", got)
	}
	if got := aws.ToString(in.FromEmailAddress); got != "WordMatch <noreply@example.com>" {
		t.Errorf("From = %q", got)
	}
	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	if strings.Index(text, "<dog>: 4") > strings.Index(text, "cat: 1") {
		t.Errorf("text body not sorted by count:\n%s", text)
	}
	html := aws.ToString(in.Content.Simple.Body.Html.Data)
	if strings.Contains(html, "<dog>") || !strings.Contains(html, "&lt;dog&gt;") {
		t.Error("HTML body does not escape words")
	}
}

func TestSendMistakeReportErrors(t *testing.T) {
	disabled, err := NewEmailService(context.Background(), "us-east-1", "", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := disabled.SendMistakeReport(context.Background(), "a@example.com", nil); !errors.Is(err, ErrEmailDisabled) {
		t.Errorf("disabled service error = %v, want ErrEmailDisabled", err)
	}

	svc := newEmailService(&fakeSES{}, "noreply@example.com", "", false)
	if err := svc.SendMistakeReport(context.Background(), "not an address", nil); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("bad address error = %v, want ErrInvalidEmail", err)
	}

	failing := newEmailService(&fakeSES{err: errors.New("throttled")}, "noreply@example.com", "", false)
	if err := failing.SendMistakeReport(context.Background(), "a@example.com", nil); err == nil {
		t.Error("SES failure was not reported")
	}
}
