package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	log "github.com/sirupsen/logrus"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService tells winners who registered with an email address that they
// won a prize. Winners registered by phone are skipped. Disabled when
// SMTP_HOST is unset.
type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string

	winnerTemplate *template.Template
	sendMail       sendMailFunc
}

const EMAIL_SVC = "email_svc"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")

	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromName == "" {
		svc.fromName = "Devine le mot"
	}
	svc.sendMail = smtp.SendMail

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	if err := svc.loadTemplates(); err != nil {
		return err
	}
	if !svc.Enabled() {
		log.Info("SMTP not configured, winner emails disabled")
	}
	return nil
}

const winnerEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.AppName}} - Vous avez gagné !</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #059669; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Félicitations {{.Handle}} !</h1>
        </div>
        <div class="content">
            <p>Vous faites partie des gagnants de la distribution du {{.DistributedAt}}.</p>
            <p>Place obtenue : <strong>{{.Slot}}</strong> sur {{.Slots}}.</p>
            <p>Présentez-vous au stand pour récupérer votre lot.</p>
        </div>
        <div class="footer">
            <p>{{.AppName}}</p>
        </div>
    </div>
</body>
</html>
`

type WinnerEmailData struct {
	AppName       string
	Handle        string
	Slot          int
	Slots         int
	DistributedAt string
}

func (svc *EmailService) loadTemplates() error {
	var err error
	svc.winnerTemplate, err = template.New("winner").Parse(winnerEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse winner email template: %v", err)
	}
	return nil
}

func (svc *EmailService) Enabled() bool {
	return svc != nil && svc.smtpHost != ""
}

// NotifyWinners emails every winner whose contact is an email address and
// returns how many messages went out. Failures are logged per winner.
func (svc *EmailService) NotifyWinners(rec model.DistributionRecord) int {
	if !svc.Enabled() {
		return 0
	}

	sent := 0
	for i, winner := range rec.Winners {
		if !strings.Contains(winner.Contact, "@") {
			continue
		}
		data := WinnerEmailData{
			AppName:       svc.fromName,
			Handle:        winner.Handle,
			Slot:          i + 1,
			Slots:         len(rec.Winners),
			DistributedAt: repositories.FormatTime(rec.DistributedAt),
		}
		if err := svc.sendTemplateEmail(winner.Contact, "Vous avez gagné un lot !", svc.winnerTemplate, data); err != nil {
			continue
		}
		sent++
	}
	return sent
}

func (svc *EmailService) sendTemplateEmail(to, subject string, tmpl *template.Template, data interface{}) error {
	if tmpl == nil {
		return fmt.Errorf("template %s not loaded", subject)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %v", err)
	}

	return svc.sendEmail(to, subject, body.String())
}

func (svc *EmailService) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	err := svc.sendMail(svc.smtpHost+":"+svc.smtpPort, auth, svc.fromEmail, []string{to}, msg)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}
