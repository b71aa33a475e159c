package notify

import (
	"context"
	"fmt"
	"log"
)

// Message is one outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers result emails. Implementations are best-effort: a send
// failure never affects the grading outcome it describes.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResultMessage builds the post-completion summary for an authenticated
// attempt.
func ResultMessage(to, toName, subject, quizTitle string, total, possible, percentage float64) Message {
	text := fmt.Sprintf("You scored %.2f out of %.2f (%.2f%%) on %q.", total, possible, percentage, quizTitle)
	html := fmt.Sprintf(
		"<p>You scored <strong>%.2f</strong> out of <strong>%.2f</strong> (%.2f%%) on <em>%s</em>.</p>",
		total, possible, percentage, quizTitle)
	return Message{To: to, ToName: toName, Subject: subject, HTMLBody: html, TextBody: text}
}

// ConsoleMailer logs messages instead of sending them; the dev default when
// no sendgrid key is configured.
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, msg Message) error {
	log.Printf("mail to=%s subject=%q body=%q", msg.To, msg.Subject, msg.TextBody)
	return nil
}
