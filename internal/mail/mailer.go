package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer sends notification mail over SMTP. Sending is fire-and-forget:
// failures are logged and swallowed, they never fail the request that
// triggered them.
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewMailer(host string, port int, username, password, fromEmail, fromName string) *Mailer {
	return &Mailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

var templates = map[string]string{
	"password_reset": `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password Reset</h2>
    <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
    <p>We received a request to reset your password. Click the link below to choose a new one:</p>
    <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
    <p>The link expires in one hour. If you did not request a reset, you can ignore this email.</p>
    <p style="font-size: 12px; color: #7f8c8d;">TaskFlow</p>
</body>
</html>`,
	"team_invite": `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>You have been invited to join {{.TeamName}}</h2>
    <p>{{.InviterName}} invited you to the team "{{.TeamName}}" on TaskFlow.</p>
    <p>Follow this link to join:</p>
    <p><a href="{{.JoinURL}}">{{.JoinURL}}</a></p>
    <p style="font-size: 12px; color: #7f8c8d;">TaskFlow</p>
</body>
</html>`,
}

func (m *Mailer) send(to, subject, tmplName string, data interface{}) error {
	tmpl, ok := templates[tmplName]
	if !ok {
		return fmt.Errorf("unknown mail template %q", tmplName)
	}
	t, err := template.New(tmplName).Parse(tmpl)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}

// SendPasswordReset mails the reset link. Errors are swallowed.
func (m *Mailer) SendPasswordReset(to, name, resetURL string) {
	err := m.send(to, "Password Reset - TaskFlow", "password_reset", map[string]string{
		"Name":     name,
		"ResetURL": resetURL,
	})
	if err != nil {
		log.Printf("⚠️  Failed to send password reset email to %s: %v", to, err)
	}
}

// SendTeamInvite mails a join link for the team. Errors are swallowed.
func (m *Mailer) SendTeamInvite(to, inviterName, teamName, joinURL string) {
	err := m.send(to, fmt.Sprintf("Invitation to join %s - TaskFlow", teamName), "team_invite", map[string]string{
		"InviterName": inviterName,
		"TeamName":    teamName,
		"JoinURL":     joinURL,
	})
	if err != nil {
		log.Printf("⚠️  Failed to send team invite email to %s: %v", to, err)
	}
}
