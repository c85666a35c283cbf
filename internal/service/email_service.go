package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"moodjournal/internal/models"
)

// EmailService sends reminder emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{
			appBaseURL: appBaseURL,
			enabled:    false,
			debug:      debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] From Name: %s", fromName)
		log.Printf("[DEBUG] App Base URL: %s", appBaseURL)
	}

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(awsRegion),
	)
	if err != nil {
		if debug {
			log.Printf("[DEBUG] Failed to load AWS config: %v", err)
		}
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if debug {
		log.Println("[DEBUG] AWS config loaded successfully")
	}

	// Create SES client
	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	if debug {
		log.Println("[DEBUG] SES client created successfully")
	}

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendReminder sends the daily reminder to a user who asked for one
func (s *EmailService) SendReminder(ctx context.Context, target models.ReminderTarget) error {
	if s.debug {
		log.Printf("[DEBUG] SendReminder called: user=%d, to=%s, training=%v, mood=%v",
			target.UserID, target.Email, target.TrainingReminder, target.MoodReminder)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): reminder to %s", target.Email)
		return nil
	}

	subject, htmlBody, textBody := s.reminderContent(target)
	if s.debug {
		log.Printf("[DEBUG] Sending reminder email: subject=%s, to=%s", subject, target.Email)
		log.Printf("[DEBUG] HTML body length: %d bytes", len(htmlBody))
		log.Printf("[DEBUG] Text body length: %d bytes", len(textBody))
	}

	return s.sendEmail(ctx, target.Email, subject, htmlBody, textBody)
}

// reminderContent builds the reminder mail for the switches the user turned on
func (s *EmailService) reminderContent(target models.ReminderTarget) (subject, htmlBody, textBody string) {
	var lines []string
	if target.MoodReminder {
		lines = append(lines, "오늘 하루의 기분을 기록해 보세요.")
	}
	if target.TrainingReminder {
		lines = append(lines, "마음 훈련 질문에 답하며 하루를 정리해 보세요.")
	}

	name := target.Name
	if name == "" {
		name = "회원"
	}
	subject = "[Mood Journal] 오늘의 기록을 남겨 보세요"

	var items strings.Builder
	for _, line := range lines {
		items.WriteString("\t\t\t\t<li>" + html.EscapeString(line) + "</li>\n")
	}

	htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.content { background-color: #f9f6f2; padding: 30px; border-radius: 8px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #7b9e87; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="content">
			<p>%s님, 안녕하세요.</p>
			<ul>
%s			</ul>
			<p style="text-align: center;">
				<a href="%s/training" class="button">기록하러 가기</a>
			</p>
		</div>
		<div class="footer">
			<p>알림 설정은 앱의 설정 화면에서 바꿀 수 있어요.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(name), items.String(), s.appBaseURL)

	textBody = fmt.Sprintf("%s님, 안녕하세요.\n\n- %s\n\n기록하러 가기: %s/training\n",
		name, strings.Join(lines, "\n- "), s.appBaseURL)

	return subject, htmlBody, textBody
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if s.debug {
		log.Printf("[DEBUG] sendEmail called: to=%s, subject=%s", toEmail, subject)
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] From address: %s", fromAddress)
		log.Printf("[DEBUG] To address: %s", toEmail)
		log.Printf("[DEBUG] Subject: %s", subject)
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

	if s.debug {
		log.Printf("[DEBUG] Calling SES SendEmail API...")
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug {
		log.Printf("[DEBUG] SES SendEmail succeeded")
		if result.MessageId != nil {
			log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
		}
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
