// Package request composes the pre-filled email a visitor sends to ask for
// a new lesson. Sending is left to the visitor's mail client.
package request

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrEmptyTopic is returned when the topic is blank.
var ErrEmptyTopic = errors.New("topic is required")

// SubjectPrefix starts every request subject line.
const SubjectPrefix = "Museum Lesson Request: "

// Message is a composed email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Compose builds the request email for topic and details. now stamps the
// "Requested" line.
func Compose(recipient, topic, details string, now time.Time) (Message, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Message{}, ErrEmptyTopic
	}
	details = strings.TrimSpace(details)

	body := fmt.Sprintf("New lesson request:\n\nTopic: %s\n\nDetails: %s\n\nRequested: %s",
		topic, details, now.Format("January 2, 2006"))

	return Message{
		To:      recipient,
		Subject: SubjectPrefix + topic,
		Body:    body,
	}, nil
}

// MailtoURL renders the message as a mailto: link. Subject and body are
// percent-encoded so spaces become %20 rather than '+', which mail clients
// would show literally.
func (m Message) MailtoURL() string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		m.To, escape(m.Subject), escape(m.Body))
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
