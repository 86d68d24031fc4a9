package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Template names accepted by Render. Anything else falls back to the
// raw subject/text/html carried on the job.
const (
	TemplateVerification  = "verification"
	TemplatePasswordReset = "password-reset"
	TemplateWelcome       = "welcome"
	TemplateProjectInvite = "project-invite"
)

type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

type templateDef struct {
	subject string
	text    string
	html    string
}

var templates = map[string]templateDef{
	TemplateVerification: {
		subject: "Verify your email address",
		text: `{{.Greeting}}

Thank you for signing up! Please verify your email address by opening the link below:

{{.FrontendURL}}/verify-email/{{.Token}}

This verification link expires in 5 days. If you didn't create an account, please ignore this email.

Best regards,
The TaskDeck Team`,
		html: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Verify your email address</h2>
  <p>{{.Greeting}}</p>
  <p>Thank you for signing up! Please verify your email address to complete your account setup.</p>
  <p><a href="{{.FrontendURL}}/verify-email/{{.Token}}">Verify Email Address</a></p>
  <p style="color:#64748b">This link expires in 5 days. If you didn't create an account, please ignore this email.</p>
</div>`,
	},
	TemplatePasswordReset: {
		subject: "Reset your password",
		text: `{{.Greeting}}

We received a request to reset your TaskDeck password. Open the link below to choose a new one:

{{.FrontendURL}}/reset-password/{{.Token}}

This reset link expires in 1 hour. If you didn't request a reset, ignore this email and your password stays unchanged.

Best regards,
The TaskDeck Team`,
		html: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Reset your password</h2>
  <p>{{.Greeting}}</p>
  <p>We received a request to reset your TaskDeck password.</p>
  <p><a href="{{.FrontendURL}}/reset-password/{{.Token}}">Reset Password</a></p>
  <p style="color:#64748b">This link expires in 1 hour. If you didn't request a reset, ignore this email.</p>
</div>`,
	},
	TemplateWelcome: {
		subject: "Welcome to TaskDeck",
		text: `{{.Greeting}}

Your email is verified and your account is ready. Head over to your dashboard to create your first project:

{{.FrontendURL}}/dashboard

Best regards,
The TaskDeck Team`,
		html: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Welcome to TaskDeck</h2>
  <p>{{.Greeting}}</p>
  <p>Your email is verified and your account is ready.</p>
  <p><a href="{{.FrontendURL}}/dashboard">Go to your dashboard</a></p>
</div>`,
	},
	TemplateProjectInvite: {
		subject: "Invitation to join project",
		text: `Hello,

{{.InviterName}} invited you to join the project "{{.ProjectName}}" as {{.ProjectRole}}.

Accept the invitation here:

{{.FrontendURL}}/invitations/{{.Token}}

This invitation expires in 5 days.

Best regards,
The TaskDeck Team`,
		html: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>You're invited</h2>
  <p>{{.InviterName}} invited you to join <strong>{{.ProjectName}}</strong> as <strong>{{.ProjectRole}}</strong>.</p>
  <p><a href="{{.FrontendURL}}/invitations/{{.Token}}">View Invitation</a></p>
  <p style="color:#64748b">This invitation expires in 5 days.</p>
</div>`,
	},
}

type templateData struct {
	Greeting    string
	FrontendURL string
	Token       string
	ProjectName string
	ProjectRole string
	InviterName string
}

// Render produces the subject and both bodies for a named template.
func Render(name, frontendURL string, data map[string]string) (*renderedEmail, error) {
	def, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", name)
	}

	greeting := "Hello,"
	if n := data["userName"]; n != "" {
		greeting = "Hi " + n + ","
	}
	inviter := data["inviterName"]
	if inviter == "" {
		inviter = "Someone"
	}

	td := templateData{
		Greeting:    greeting,
		FrontendURL: frontendURL,
		Token:       data["token"],
		ProjectName: data["projectName"],
		ProjectRole: data["role"],
		InviterName: inviter,
	}

	var textBuf bytes.Buffer
	tt, err := texttemplate.New(name).Parse(def.text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s text template: %w", name, err)
	}
	if err := tt.Execute(&textBuf, td); err != nil {
		return nil, fmt.Errorf("rendering %s text template: %w", name, err)
	}

	var htmlBuf bytes.Buffer
	ht, err := template.New(name).Parse(def.html)
	if err != nil {
		return nil, fmt.Errorf("parsing %s html template: %w", name, err)
	}
	if err := ht.Execute(&htmlBuf, td); err != nil {
		return nil, fmt.Errorf("rendering %s html template: %w", name, err)
	}

	return &renderedEmail{
		Subject: def.subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}
