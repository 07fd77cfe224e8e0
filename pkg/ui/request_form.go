package ui

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/museumhub/pkg/request"
)

// RequestDraft holds the request form's bound values. The form keeps
// pointers into it, so it must not be copied while a form is live.
type RequestDraft struct {
	Topic   string
	Details string
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func validateTopic(s string) error {
	if strings.TrimSpace(s) == "" {
		return request.ErrEmptyTopic
	}
	return nil
}

// NewRequestForm builds the lesson request form over d.
func NewRequestForm(d *RequestDraft) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Topic").
				Description("What should the new lesson be about?").
				Placeholder("e.g. Impressionist techniques").
				Value(&d.Topic).
				Validate(validateTopic),
			huh.NewText().
				Title("Details").
				Description("Anything the curators should know (optional)").
				CharLimit(2000).
				Value(&d.Details),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

// PromptRequest runs the request form standalone and composes the message.
// Without a TTY the form falls back to huh's accessible line mode.
func PromptRequest(recipient string, now time.Time) (request.Message, error) {
	var d RequestDraft
	form := NewRequestForm(&d)
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return request.Message{}, err
	}
	return request.Compose(recipient, d.Topic, d.Details, now)
}
