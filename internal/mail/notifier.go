package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateVerifyEmail     = "verify_email.html"
	templateResetPassword   = "reset_password.html"
	templateTeamInvitation  = "team_invitation.html"
	templatePasswordChanged = "password_changed.html"
	templateMFAEnabled      = "mfa_enabled.html"
)

type templateData struct {
	AppName     string
	Name        string
	URL         string
	Action      string
	ExpiresIn   string
	TeamName    string
	InviterName string
	Role        string
}

// Notifier собирает письма из шаблонов и отправляет их через Mailer
type Notifier struct {
	mailer       Mailer
	templates    *template.Template
	log          *logger.Logger
	appName      string
	baseURL      string
	tokens       config.TokenConfig
	failSilently bool
}

func NewNotifier(mailer Mailer, cfg *config.Config, log *logger.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	return &Notifier{
		mailer:       mailer,
		templates:    tmpl,
		log:          log,
		appName:      cfg.App.Name,
		baseURL:      strings.TrimRight(cfg.App.BaseURL, "/"),
		tokens:       cfg.Tokens,
		failSilently: cfg.Mail.FailSilently,
	}, nil
}

func (n *Notifier) SendVerification(ctx context.Context, user *domain.User, token string) error {
	link := n.link("/verify-email", url.Values{"token": {token}})
	return n.send(ctx, user.Email, "Verify your email address", templateVerifyEmail, templateData{
		Name:      user.Name,
		URL:       link,
		Action:    "Verify email",
		ExpiresIn: humanDuration(n.tokens.VerificationTTL),
	})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user *domain.User, token string) error {
	link := n.link("/reset-password", url.Values{"token": {token}})
	return n.send(ctx, user.Email, "Reset your password", templateResetPassword, templateData{
		Name:      user.Name,
		URL:       link,
		Action:    "Reset password",
		ExpiresIn: humanDuration(n.tokens.ResetTTL),
	})
}

func (n *Notifier) SendInvitation(ctx context.Context, inv *domain.TeamInvitation, inviterName, token string) error {
	link := n.link("/invitations/"+url.PathEscape(token), nil)
	return n.send(ctx, inv.Email, fmt.Sprintf("You're invited to join %s", inv.TeamName), templateTeamInvitation, templateData{
		URL:         link,
		Action:      "Accept invitation",
		ExpiresIn:   humanDuration(n.tokens.InvitationTTL),
		TeamName:    inv.TeamName,
		InviterName: inviterName,
		Role:        string(inv.Role),
	})
}

func (n *Notifier) SendPasswordChanged(ctx context.Context, user *domain.User) error {
	return n.send(ctx, user.Email, "Your password was changed", templatePasswordChanged, templateData{Name: user.Name})
}

func (n *Notifier) SendMFAEnabled(ctx context.Context, user *domain.User) error {
	return n.send(ctx, user.Email, "Two-factor authentication enabled", templateMFAEnabled, templateData{Name: user.Name})
}

// send логирует ошибку доставки и возвращает её, только если failSilently выключен
func (n *Notifier) send(ctx context.Context, to, subject, name string, data templateData) error {
	data.AppName = n.appName

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	msg := Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] %s", n.appName, subject),
		HTML:    body.String(),
		Text:    plainText(subject, data),
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.WithContext(ctx).Error("failed to send email", "template", name, "to", to, "error", err)
		if n.failSilently {
			return nil
		}
		return err
	}

	n.log.WithContext(ctx).Debug("email sent", "template", name, "to", to)
	return nil
}

func (n *Notifier) link(path string, query url.Values) string {
	link := n.baseURL + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return link
}

func plainText(subject string, data templateData) string {
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\n\n")
	if data.TeamName != "" {
		fmt.Fprintf(&b, "%s invited you to join %s as %s.\n", data.InviterName, data.TeamName, data.Role)
	}
	if data.URL != "" {
		fmt.Fprintf(&b, "%s: %s\n", data.Action, data.URL)
	}
	if data.ExpiresIn != "" {
		fmt.Fprintf(&b, "The link expires in %s.\n", data.ExpiresIn)
	}
	return b.String()
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	case d >= 2*time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Hour:
		return "1 hour"
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
