package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"

	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/model"
)

var tagEmoji = map[model.EmailTag]string{
	model.TagDaily:    "🌅",
	model.TagManual:   "✨",
	model.TagPersonal: "💌",
}

var htmlBody = htmltemplate.Must(htmltemplate.New("quote.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; background: #f7f5f0; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; padding: 32px; border-radius: 8px;">
    <h2 style="color: #333;">{{.Emoji}} Your {{.Tag}} Motivation</h2>
    <blockquote style="font-size: 20px; color: #222; border-left: 4px solid #e0a500; margin: 24px 0; padding-left: 16px;">
      &ldquo;{{.Quote.Text}}&rdquo;
    </blockquote>
    <p style="color: #666; text-align: right;">&mdash; {{.Quote.Author}}</p>
    {{- if .UnsubscribeURL}}
    <p style="font-size: 12px; color: #999; margin-top: 32px;">
      Don't want these emails? <a href="{{.UnsubscribeURL}}">Unsubscribe</a>.
    </p>
    {{- end}}
  </div>
</body>
</html>
`))

var textBody = texttemplate.Must(texttemplate.New("quote.txt").Parse(`Your {{.Tag}} Motivation

"{{.Quote.Text}}"
  - {{.Quote.Author}}
{{if .UnsubscribeURL}}
Unsubscribe: {{.UnsubscribeURL}}
{{end}}`))

type templateData struct {
	Tag            model.EmailTag
	Emoji          string
	Quote          model.Quote
	UnsubscribeURL string
}

// Notifier renders quote emails and hands them to a Mailer.
type Notifier struct {
	mailer         Mailer
	logger         *slog.Logger
	metrics        metrics.Recorder
	unsubscribeURL string
}

// New creates a Notifier. unsubscribeURL is linked from every email when set.
func New(mailer Mailer, logger *slog.Logger, recorder metrics.Recorder, unsubscribeURL string) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Notifier{
		mailer:         mailer,
		logger:         logger.With("component", "notifier"),
		metrics:        recorder,
		unsubscribeURL: unsubscribeURL,
	}
}

// Subject returns the subject line used for a tag.
func Subject(tag model.EmailTag) string {
	emoji, ok := tagEmoji[tag]
	if !ok {
		emoji = "💡"
	}
	return fmt.Sprintf("%s %s Motivation", emoji, tag)
}

// Compose renders the message for one recipient without sending it.
func (n *Notifier) Compose(tag model.EmailTag, to string, quote model.Quote) (Message, error) {
	data := templateData{
		Tag:            tag,
		Emoji:          tagEmoji[tag],
		Quote:          quote,
		UnsubscribeURL: n.unsubscribeURL,
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}

	return Message{
		To:      to,
		Subject: Subject(tag),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// SendQuoteEmail sends one quote email. Failures are *DeliveryError.
func (n *Notifier) SendQuoteEmail(ctx context.Context, tag model.EmailTag, to string, quote model.Quote) error {
	msg, err := n.Compose(tag, to, quote)
	if err != nil {
		return &DeliveryError{Message: "compose", Err: err}
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		de := asDeliveryError(err)
		class := ClassifyFailure(de.Code, de.Message)
		n.metrics.IncEmailFailed(string(tag), class.String())
		n.logger.Warn("email delivery failed",
			slog.String("tag", string(tag)),
			slog.String("to", model.RedactEmail(to)),
			slog.Int("code", de.Code),
			slog.String("classification", class.String()),
			slog.String("error", de.Message),
		)
		return de
	}

	n.metrics.IncEmailSent(string(tag))
	n.logger.Info("email sent",
		slog.String("tag", string(tag)),
		slog.String("to", model.RedactEmail(to)),
	)
	return nil
}

func asDeliveryError(err error) *DeliveryError {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	return &DeliveryError{Message: err.Error(), Err: err}
}
