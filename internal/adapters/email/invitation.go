package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
)

// InvitationMail is the data of the "your access is ready" email sent to an approved Pionier.
type InvitationMail struct {
	Name      string
	Link      string
	ExpiresAt time.Time
}

const invitationSubject = "Deine Einladung in den Inner Circle"

var invitationBody = template.Must(template.New("invitation").Parse(`Hallo {{.Name}},

herzlichen Glückwunsch! Deine Bewerbung für die **Inner Circle Pioniergruppe** wurde angenommen.

Über den folgenden Link legst du dein Passwort fest und erhältst Zugang zu deinem Dashboard:

[Zugang aktivieren]({{.Link}})

Der Link ist gültig bis zum **{{.Expires}}**.

Bis gleich im Inner Circle!
`))

// RenderInvitation builds the invitation email addressed to to.
// PRE: m.Link is an absolute URL
// POST: HTML is the markdown body rendered by goldmark; Text is the markdown itself; dates use loc
func RenderInvitation(to string, m InvitationMail, loc *time.Location) (Message, error) {
	if loc == nil {
		loc = time.UTC
	}
	var md bytes.Buffer
	err := invitationBody.Execute(&md, struct {
		Name, Link, Expires string
	}{m.Name, m.Link, m.ExpiresAt.In(loc).Format("2.1.2006 15:04")})
	if err != nil {
		return Message{}, fmt.Errorf("render invitation: %w", err)
	}
	var html bytes.Buffer
	if err := goldmark.Convert(md.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("convert invitation markdown: %w", err)
	}
	return Message{
		To:       to,
		Subject:  invitationSubject,
		HTML:     html.String(),
		Text:     md.String(),
		Category: CategoryInvitation,
	}, nil
}
