package smtp

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"math"
	texttemplate "text/template"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

const textTemplate = `Hello,

{{.Intro}}: {{.Email}}

Your OTP code is: {{.Code}}
This OTP will expire in {{.Minutes}} minutes.

If you didn't request this, you can safely ignore this email.

{{.Brand}} Team`

const htmlTemplate = `<!doctype html>
<html><head><meta charset="utf-8"/></head>
<body style="margin:0; padding:24px 12px; background:#f6f7fb; font-family:Arial, Helvetica, sans-serif; color:#111827;">
  <div style="max-width:600px; margin:0 auto; background:#ffffff; border-radius:14px; overflow:hidden;">
    <div style="padding:18px 22px; background:#6366f1; color:#ffffff; font-size:22px; font-weight:800;">{{.Brand}}</div>
    <div style="padding:22px;">
      <h1 style="margin:0 0 8px 0; font-size:20px;">{{.Title}}</h1>
      <p style="margin:0 0 14px 0; color:#4b5563; font-size:14px;">{{.Intro}} <b>{{.Email}}</b>.</p>
      <div style="margin:18px 0; padding:16px; border:1px solid #e5e7eb; background:#f9fafb; border-radius:12px;">
        <div style="font-size:12px; color:#6b7280; margin-bottom:8px;">Your One-Time Password (OTP)</div>
        <div style="font-size:28px; letter-spacing:6px; font-weight:800;">{{.Code}}</div>
        <div style="margin-top:10px; font-size:12px; color:#6b7280;">Expires in <b>{{.Minutes}} minutes</b>.</div>
      </div>
      <p style="margin:0; color:#4b5563; font-size:13px;">If you didn't request this, you can safely ignore this email. Do not share this code with anyone.</p>
    </div>
  </div>
</body></html>`

var (
	otpText = texttemplate.Must(texttemplate.New("otp.txt").Parse(textTemplate))
	otpHTML = htmltemplate.Must(htmltemplate.New("otp.html").Parse(htmlTemplate))
)

type otpView struct {
	Brand   string
	Title   string
	Intro   string
	Email   string
	Code    string
	Minutes int
}

// OtpMailer renders purpose-specific OTP emails and hands them to a Sender.
type OtpMailer struct {
	sender Sender
	brand  string
	ttl    time.Duration
}

func NewOtpMailer(sender Sender, brand string, ttl time.Duration) *OtpMailer {
	if brand == "" {
		brand = "Internship Finder"
	}
	return &OtpMailer{sender: sender, brand: brand, ttl: ttl}
}

func (m *OtpMailer) SendOtp(ctx context.Context, to string, purpose domain.OtpPurpose, code string) error {
	pol, ok := purpose.Policy()
	if !ok {
		return fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	view := otpView{
		Brand:   m.brand,
		Title:   pol.Title,
		Intro:   pol.Intro,
		Email:   to,
		Code:    code,
		Minutes: int(math.Ceil(m.ttl.Minutes())),
	}

	var text, html bytes.Buffer
	if err := otpText.Execute(&text, view); err != nil {
		return fmt.Errorf("render otp text: %w", err)
	}
	if err := otpHTML.Execute(&html, view); err != nil {
		return fmt.Errorf("render otp html: %w", err)
	}

	subject := m.brand + " | " + pol.Subject
	if err := m.sender.Send(ctx, to, subject, Body{Text: text.String(), HTML: html.String()}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}
