package contact

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Envelope fixes who sends and receives relayed messages. From is the relay
// account; To is the studio inbox.
type Envelope struct {
	From string
	To   []string
}

// Message is a fully composed email ready for a Mailer.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

const footer = "This email was sent from the 1not2 Productions contact form."

var htmlBody = htmltemplate.Must(htmltemplate.New("contact-html").Parse(`<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{- if .Phone}}
<p><strong>Phone:</strong> {{.Phone}}</p>
{{- end}}
<p><strong>Subject:</strong> {{.DisplaySubject}}</p>
<p><strong>Message:</strong></p>
<p style="white-space: pre-wrap;">{{.Message}}</p>
<hr>
<p><small>` + footer + `</small></p>
`))

var textBody = texttemplate.Must(texttemplate.New("contact-text").Parse(`New Contact Form Submission

Name: {{.Name}}
Email: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}
Subject: {{.DisplaySubject}}

Message:
{{.Message}}

---
` + footer + `
`))

// Compose renders the studio-facing email for a submission. Replies go
// straight to the visitor.
func Compose(p Payload, env Envelope) (Message, error) {
	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, p); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&text, p); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	to := make([]string, len(env.To))
	copy(to, env.To)
	return Message{
		From:    env.From,
		To:      to,
		ReplyTo: p.Email,
		Subject: "New Contact Form: " + p.DisplaySubject(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
