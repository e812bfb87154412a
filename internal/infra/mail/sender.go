package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

const followUpTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <p>Hi {{.RecipientName}},</p>

  <p>{{.Message}}</p>

  <p>Would you be open to a quick call to discuss? I'm available at your convenience.</p>

  <p>Best regards,</p>

  <p>
    <strong>{{.AgentName}}</strong><br>
    {{.AgentPhone}}<br>
    <a href="mailto:{{.AgentEmail}}">{{.AgentEmail}}</a>
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">

  <p style="font-size: 12px; color: #666;">
    If you no longer wish to receive emails from us, please reply with "UNSUBSCRIBE" and we'll remove you from our list.
  </p>
</body>
</html>
`

var followUpTmpl = template.Must(template.New("followup").Parse(followUpTemplate))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// Send implements the channel adapter contract over SMTP. SMTP gives
// us no provider message id, so MessageID stays empty on success.
func (s *EmailSender) Send(ctx context.Context, msg usecase.OutboundMessage) usecase.ChannelResult {
	data := FollowUpEmailData{
		RecipientName:   msg.RecipientName,
		PropertyAddress: msg.PropertyAddress,
		Message:         msg.Body,
		AgentName:       msg.AgentName,
		AgentPhone:      msg.AgentPhone,
		AgentEmail:      msg.AgentEmail,
	}

	var body bytes.Buffer
	if err := followUpTmpl.Execute(&body, data); err != nil {
		return usecase.ChannelResult{OK: false, Error: fmt.Sprintf("rendering email template: %v", err)}
	}

	subject := fmt.Sprintf("Regarding your property at %s", msg.PropertyAddress)
	if msg.FollowUpNumber > 1 {
		subject = "Re: " + subject
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.From, msg.AgentName))
	m.SetHeader("To", msg.To)
	m.SetHeader("Reply-To", msg.AgentEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	// gomail has no context support; bound the call ourselves.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			middleware.RecordIntegrationError("smtp")
			return usecase.ChannelResult{OK: false, Error: fmt.Sprintf("SMTP send failed: %v", err)}
		}
		return usecase.ChannelResult{OK: true}
	case <-ctx.Done():
		middleware.RecordIntegrationError("smtp")
		return usecase.ChannelResult{OK: false, Error: "SMTP send timed out"}
	}
}
