package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))

// ResetPasswordData fills the reset-password template.
type ResetPasswordData struct {
	AppName   string
	Name      string
	OTP       string
	Link      string
	Device    string
	IP        string
	ExpiresIn time.Duration
}

// Renderer builds messages from the embedded templates.
type Renderer struct {
	appName string
}

// NewRenderer creates a Renderer that signs emails with appName.
func NewRenderer(appName string) *Renderer {
	return &Renderer{appName: appName}
}

// ResetPassword renders the password reset email for to.
func (r *Renderer) ResetPassword(to string, data ResetPasswordData) (Message, error) {
	if data.AppName == "" {
		data.AppName = r.appName
	}

	var html bytes.Buffer
	if err := templates.ExecuteTemplate(&html, "reset-password.html", data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: "Reset your " + data.AppName + " password",
		HTML:    html.String(),
		Text:    resetPasswordText(data),
	}, nil
}

func resetPasswordText(d ResetPasswordData) string {
	var b strings.Builder
	b.WriteString("Hi " + d.Name + ",\n\n")
	b.WriteString("We received a request to reset your " + d.AppName + " password.\n")
	b.WriteString("Your verification code is " + d.OTP + ".\n")
	if d.Link != "" {
		b.WriteString("You can also reset it here: " + d.Link + "\n")
	}
	if d.ExpiresIn > 0 {
		b.WriteString("The code expires in " + d.ExpiresIn.String() + ".\n")
	}
	b.WriteString("\nRequested from " + d.Device + " (" + d.IP + ").\n")
	b.WriteString("If this was not you, you can ignore this email.\n")
	return b.String()
}
