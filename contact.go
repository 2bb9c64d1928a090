package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactMessage struct {
	Name    string
	Email   string
	Message string
}

type mailer interface {
	Send(msg contactMessage) error
}

var errMailNotConfigured = errors.New("SMTP credentials not configured")

type smtpMailer struct {
	cfg appConfig
}

func (m smtpMailer) Send(msg contactMessage) error {
	cfg := m.cfg
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return errMailNotConfigured
	}
	to := cfg.ContactTo
	if to == "" {
		to = cfg.SMTPUser
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", msg.Name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	raw := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + cfg.SMTPUser + "\r\n" +
		"Reply-To: " + msg.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	if err := smtp.SendMail(addr, auth, cfg.SMTPUser, []string{to}, raw); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}

// validate rejects input that would break the message headers.
func (m contactMessage) validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Message) == "" {
		return errors.New("name and message are required")
	}
	if strings.ContainsAny(m.Name, "\r\n") {
		return errors.New("name must be a single line")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil || strings.ContainsAny(m.Email, "\r\n") {
		return errors.New("a valid email address is required")
	}
	return nil
}

func (s *server) handleContact(c *gin.Context) {
	msg := contactMessage{
		Name:    c.PostForm("fullName"),
		Email:   c.PostForm("email"),
		Message: c.PostForm("message"),
	}

	if err := msg.validate(); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please check the form: " + err.Error() + ".",
		})
		return
	}

	if err := s.mailer.Send(msg); err != nil {
		s.log.Error().Err(err).Msg("sending contact email")
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	s.log.Info().Str("name", msg.Name).Msg("contact email sent")
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
