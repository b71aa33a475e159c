package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sgHost     = "https://api.sendgrid.com"
	sgEndpoint = "/v3/mail/send"
)

type SendgridMailer struct {
	key  string
	from *sgmail.Email
}

var _ Mailer = (*SendgridMailer)(nil)

func NewSendgridMailer(apiKey, fromAddr string) *SendgridMailer {
	return &SendgridMailer{
		key:  apiKey,
		from: sgmail.NewEmail("", fromAddr),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.TextBody),
		sgmail.NewContent("text/html", msg.HTMLBody),
	)

	req := sendgrid.GetRequest(m.key, sgEndpoint, sgHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
