// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Configured reports whether an SMTP host is set.
func (s *Service) Configured() bool {
	return s != nil && s.config.Host != ""
}

type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// GroupInvitationData holds data for the group invitation email
type GroupInvitationData struct {
	GroupName  string
	InvitedBy  string
	InviteURL  string
	ExpiresAt  time.Time
	ExpiryDays int
}

const TemplateGroupInvitation = "group_invitation"

func (s *Service) loadTemplates() {
	s.templates[TemplateGroupInvitation] = template.Must(template.New(TemplateGroupInvitation).Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0e7490; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f0f9ff; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #0e7490; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>🎣 You're invited to {{.GroupName}}</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InvitedBy}}</strong> invited you to join the fishing group <strong>{{.GroupName}}</strong> on FishLog.</p>

        <a href="{{.InviteURL}}" class="btn">View Invitation</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            This invitation expires in {{.ExpiryDays}} days ({{.ExpiresAt.Format "Jan 2, 2006"}}). If you were not expecting this email, you can ignore it.
        </p>
    </div>
    <div class="footer">
        FishLog • Tight lines
    </div>
</div>
</body>
</html>
`))
}

// Render executes a named template.
func (s *Service) Render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

func (s *Service) buildMessage(email *Email) []byte {
	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.Body)
	}
	return msg.Bytes()
}

func (s *Service) Send(email *Email) error {
	if !s.Configured() {
		log.Println("[Email] Not configured, skipping send")
		return nil
	}

	msg := s.buildMessage(email)
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if !s.config.UseTLS {
		return smtp.SendMail(addr, auth, s.config.From, email.To, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("TLS dial error: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("SMTP client error: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("auth error: %w", err)
	}
	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail error: %w", err)
	}
	for _, rcpt := range email.To {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt error: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data error: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return client.Quit()
}

func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	body, err := s.Render(templateName, data)
	if err != nil {
		return err
	}
	return s.Send(&Email{To: to, Subject: subject, HTMLBody: body})
}

// EmailQueue sends emails from a bounded in-memory queue on worker goroutines.
// A nil *EmailQueue drops everything.
type EmailQueue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan struct{}
	backoff time.Duration
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

const maxRetries = 3

func NewEmailQueue(service *Service, workers int) *EmailQueue {
	q := &EmailQueue{
		service: service,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan struct{}),
		backoff: 2 * time.Second,
	}
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *EmailQueue) worker() {
	for {
		select {
		case email := <-q.queue:
			err := q.service.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
			if err == nil {
				continue
			}
			log.Printf("[Email] Send error (attempt %d): %v", email.retries+1, err)
			if email.retries < maxRetries {
				email.retries++
				time.Sleep(q.backoff * time.Duration(email.retries))
				q.push(email)
			}
		case <-q.done:
			return
		}
	}
}

func (q *EmailQueue) push(email *queuedEmail) {
	select {
	case q.queue <- email:
	default:
		log.Printf("[Email] Queue full, dropping %q to %v", email.subject, email.to)
	}
}

func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	if q == nil {
		return
	}
	q.push(&queuedEmail{to: to, subject: subject, templateName: templateName, data: data})
}

func (q *EmailQueue) SendGroupInvitation(to string, data GroupInvitationData) {
	q.Enqueue([]string{to}, fmt.Sprintf("[FishLog] Invitation to join %s", data.GroupName), TemplateGroupInvitation, data)
}

// Pending is the number of queued emails.
func (q *EmailQueue) Pending() int {
	if q == nil {
		return 0
	}
	return len(q.queue)
}

func (q *EmailQueue) Stop() {
	if q == nil {
		return
	}
	close(q.done)
}
