package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendVerificationCode emails a one-time code to a guest signing up
func (s *EmailService) SendVerificationCode(ctx context.Context, toEmail, toName, code, eventTitle string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): verification code to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("Your verification code for %s", eventTitle)
	htmlBody := fmt.Sprintf(emailShell, "Verify your email", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Use this code to confirm your signup for <strong>%s</strong>:</p>
			<p style="text-align: center; font-size: 32px; letter-spacing: 8px; font-weight: bold;">%s</p>
			<p>The code expires in 15 minutes. If you didn't request it, you can safely ignore this email.</p>
`, toName, eventTitle, code))

	textBody := fmt.Sprintf(`Hi %s,

Use this code to confirm your signup for %s:

    %s

The code expires in 15 minutes. If you didn't request it, you can safely ignore this email.

---
This is an automated email from Gatherly. Please do not reply.
`, toName, eventTitle, code)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendSignupConfirmation emails a confirmed attendee or performer with a
// signed cancellation link
func (s *EmailService) SendSignupConfirmation(ctx context.Context, toEmail, toName, eventTitle, dateKey, cancelToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): signup confirmation to %s", toEmail)
		return nil
	}

	cancelLink := fmt.Sprintf("%s/api/rsvps/actions?token=%s", s.appBaseURL, cancelToken)

	subject := fmt.Sprintf("You're in: %s on %s", eventTitle, dateKey)
	htmlBody := fmt.Sprintf(emailShell, "You're confirmed", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Your spot for <strong>%s</strong> on <strong>%s</strong> is confirmed.</p>
			<p>If your plans change, cancel with one click:</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Cancel my spot</a>
			</p>
`, toName, eventTitle, dateKey, cancelLink))

	textBody := fmt.Sprintf(`Hi %s,

Your spot for %s on %s is confirmed.

If your plans change, cancel here:
%s

---
This is an automated email from Gatherly. Please do not reply.
`, toName, eventTitle, dateKey, cancelLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendOfferNotice emails a waitlisted signup that a spot has opened up
func (s *EmailService) SendOfferNotice(ctx context.Context, toEmail, toName, eventTitle, dateKey string, hoursToRespond int) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): offer notice to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("A spot opened up: %s on %s", eventTitle, dateKey)
	htmlBody := fmt.Sprintf(emailShell, "A spot opened up", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Good news! A spot for <strong>%s</strong> on <strong>%s</strong> is now yours if you want it.</p>
			<p><strong>You have %d hours to accept</strong> before the spot goes to the next person in line.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">View the event</a>
			</p>
`, toName, eventTitle, dateKey, hoursToRespond, s.appBaseURL))

	textBody := fmt.Sprintf(`Hi %s,

Good news! A spot for %s on %s is now yours if you want it.

You have %d hours to accept before the spot goes to the next person in line.

%s

---
This is an automated email from Gatherly. Please do not reply.
`, toName, eventTitle, dateKey, hoursToRespond, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendCohostInvite emails a co-host invitation with its accept link
func (s *EmailService) SendCohostInvite(ctx context.Context, toEmail, inviterName, eventTitle, token string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): cohost invite to %s", toEmail)
		return nil
	}

	inviteLink := fmt.Sprintf("%s/invites/%s", s.appBaseURL, token)

	subject := fmt.Sprintf("%s invited you to co-host %s", inviterName, eventTitle)
	htmlBody := fmt.Sprintf(emailShell, "Co-host invitation", fmt.Sprintf(`
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to co-host <strong>%s</strong>.</p>
			<p>As a co-host you can edit the event and manage its signups.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Respond to invitation</a>
			</p>
			<p>This invitation expires in 14 days.</p>
`, inviterName, eventTitle, inviteLink))

	textBody := fmt.Sprintf(`Hi,

%s has invited you to co-host %s.

As a co-host you can edit the event and manage its signups.

Respond here: %s

This invitation expires in 14 days.

---
This is an automated email from Gatherly. Please do not reply.
`, inviterName, eventTitle, inviteLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// emailShell wraps a header title and body markup in the shared HTML layout
const emailShell = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2d7d5a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2d7d5a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
%s
		</div>
		<div class="footer">
			<p>This is an automated email from Gatherly. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`

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

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
