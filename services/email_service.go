package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &EmailService{
		host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     getEnvOrDefault("SMTP_FROM", "noreply@sgkmcollege.edu.in"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendPasswordResetOTP mails a one-time password reset code to the user.
func (e *EmailService) SendPasswordResetOTP(toEmail, userName, code string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Reset code for %s: %s", toEmail, code)
		return fmt.Errorf("SMTP not configured")
	}

	subject := "Your Password Reset Code - ATKT Portal"
	body := e.buildPasswordResetOTPBody(userName, code)

	return e.sendEmail(toEmail, subject, body)
}

// buildPasswordResetOTPBody creates the HTML email body carrying the OTP
func (e *EmailService) buildPasswordResetOTPBody(userName, code string) string {
	if userName == "" {
		userName = "Student"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Password Reset Code</title>
</head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="border-bottom: 2px solid #1a3c6e; padding-bottom: 10px;">
        MSG-SGKM College ATKT Portal
    </h2>
    <p>Hello %s,</p>
    <p>We received a request to reset the password for your ATKT portal account.
    Enter this code on the reset page:</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold; text-align: center;
       background-color: #f5f5f5; padding: 14px; border-radius: 6px;">%s</p>
    <p>The code expires in 10 minutes and can be used once. If you did not
    request a password reset, you can safely ignore this email.</p>
    <p style="font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 10px;">
        MSG-SGKM College of Arts, Science and Commerce
    </p>
</body>
</html>`, userName, code)
}

// sendEmail sends an email using SMTP with TLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("ATKT Portal <%s>", e.from)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Password reset email sent successfully to: %s", to)
	return nil
}
