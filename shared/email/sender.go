package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"prospector/internal/models"
	"prospector/shared/config"
)

//go:embed report_template.html
var reportTemplate string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"subscribers": func(count *int64) string {
		if count == nil {
			return "unknown"
		}
		return strconv.FormatInt(*count, 10)
	},
	"join": strings.Join,
}).Parse(reportTemplate))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendReport mails the digest. A report without qualified leads is not sent.
func (s *Sender) SendReport(report *models.LeadReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if report.Qualified == 0 {
		return nil
	}

	subject := fmt.Sprintf("YouTube Prospector - %d Qualified Leads (%s)",
		report.Qualified, report.Date.Format("Jan 2, 2006"))

	body, err := generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, []string{s.config.ToEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

func generateEmailBody(report *models.LeadReport) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
