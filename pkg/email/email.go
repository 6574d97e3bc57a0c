package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/tillpoint/pos/internal/domain/entity"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// SendReceiptEmail sends the order receipt to the customer.
func (s *EmailService) SendReceiptEmail(toEmail string, receipt *entity.Receipt) error {
	htmlContent, err := s.renderReceiptEmail(receipt)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your receipt from %s - Order %s", receipt.Header.StoreName, receipt.OrderNo)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

// renderReceiptEmail renders the receipt email template
func (s *EmailService) renderReceiptEmail(receipt *entity.Receipt) (string, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, receipt); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// receiptTemplate is the HTML template for receipt emails
const receiptTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Your Receipt</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 480px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);">
                    <tr>
                        <td style="background-color: #1a1a2e; padding: 32px 24px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 24px; font-weight: 600;">{{.Header.StoreName}}</h1>
                            <p style="color: #a0aec0; margin: 8px 0 0 0; font-size: 14px;">Order {{.OrderNo}} &middot; {{.Date}}</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 24px;">
                            <table role="presentation" style="width: 100%; border-collapse: collapse;">
                                {{range .Items}}
                                <tr>
                                    <td style="padding: 8px 0; color: #1a1a2e; font-size: 15px;">{{.Quantity}}x {{.Name}}</td>
                                    <td style="padding: 8px 0; color: #1a1a2e; font-size: 15px; text-align: right;">{{printf "%.2f" .Total}}</td>
                                </tr>
                                {{range .Modifiers}}
                                <tr>
                                    <td colspan="2" style="padding: 0 0 4px 16px; color: #718096; font-size: 13px;">+ {{.}}</td>
                                </tr>
                                {{end}}
                                {{end}}
                                <tr>
                                    <td colspan="2" style="border-top: 1px solid #e2e8f0; padding-top: 12px;"></td>
                                </tr>
                                <tr>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px;">Subtotal</td>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px; text-align: right;">{{printf "%.2f" .SubTotal}}</td>
                                </tr>
                                {{if .VAT}}
                                <tr>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px;">VAT</td>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px; text-align: right;">{{printf "%.2f" .VAT}}</td>
                                </tr>
                                {{end}}
                                {{if .Discount}}
                                <tr>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px;">Discount</td>
                                    <td style="padding: 4px 0; color: #4a5568; font-size: 14px; text-align: right;">-{{printf "%.2f" .Discount}}</td>
                                </tr>
                                {{end}}
                                <tr>
                                    <td style="padding: 8px 0; color: #1a1a2e; font-size: 18px; font-weight: 700;">Total</td>
                                    <td style="padding: 8px 0; color: #1a1a2e; font-size: 18px; font-weight: 700; text-align: right;">{{printf "%.2f" .Total}}</td>
                                </tr>
                            </table>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f8fafc; padding: 24px; text-align: center; border-top: 1px solid #e2e8f0;">
                            <p style="color: #a0aec0; font-size: 13px; margin: 0;">Thank you for your business!</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
