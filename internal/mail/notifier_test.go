package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/domain"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testConfig(failSilently bool) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Teamhub", BaseURL: "https://teamhub.test/"},
		Mail: config.MailConfig{
			FailSilently: failSilently,
		},
		Tokens: config.TokenConfig{
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
			InvitationTTL:   7 * 24 * time.Hour,
		},
	}
}

func newTestNotifier(t *testing.T, mailer Mailer, failSilently bool) *Notifier {
	t.Helper()
	n, err := NewNotifier(mailer, testConfig(failSilently), logger.Nop())
	require.NoError(t, err)
	return n
}

func TestNotifier_Templates(t *testing.T) {
	user := &domain.User{Email: "alice@example.com", Name: "Alice <script>"}

	t.Run("письмо подтверждения email", func(t *testing.T) {
		mailer := &recordingMailer{}
		n := newTestNotifier(t, mailer, true)

		require.NoError(t, n.SendVerification(context.Background(), user, "tok+en/1"))

		require.Len(t, mailer.sent, 1)
		msg := mailer.sent[0]
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Equal(t, "[Teamhub] Verify your email address", msg.Subject)
		assert.Contains(t, msg.HTML, "https://teamhub.test/verify-email?token=tok%2Ben%2F1")
		assert.Contains(t, msg.HTML, "24 hours")
		assert.Contains(t, msg.HTML, "Alice &lt;script&gt;", "имя должно экранироваться")
		assert.Contains(t, msg.Text, "Verify email: https://teamhub.test/verify-email?token=tok%2Ben%2F1")
	})

	t.Run("письмо сброса пароля", func(t *testing.T) {
		mailer := &recordingMailer{}
		n := newTestNotifier(t, mailer, true)

		require.NoError(t, n.SendPasswordReset(context.Background(), user, "abc"))

		require.Len(t, mailer.sent, 1)
		assert.Contains(t, mailer.sent[0].HTML, "/reset-password?token=abc")
		assert.Contains(t, mailer.sent[0].HTML, "1 hour")
	})

	t.Run("приглашение в команду", func(t *testing.T) {
		mailer := &recordingMailer{}
		n := newTestNotifier(t, mailer, true)

		inv := &domain.TeamInvitation{Email: "bob@example.com", TeamName: "Alpha", Role: domain.TeamRoleAdmin}
		require.NoError(t, n.SendInvitation(context.Background(), inv, "Alice", "xyz"))

		require.Len(t, mailer.sent, 1)
		msg := mailer.sent[0]
		assert.Equal(t, "bob@example.com", msg.To)
		assert.Contains(t, msg.Subject, "Alpha")
		assert.Contains(t, msg.HTML, "https://teamhub.test/invitations/xyz")
		assert.Contains(t, msg.HTML, "7 days")
		assert.Contains(t, msg.Text, "Alice invited you to join Alpha as admin.")
	})

	t.Run("уведомления без ссылок", func(t *testing.T) {
		mailer := &recordingMailer{}
		n := newTestNotifier(t, mailer, true)

		require.NoError(t, n.SendPasswordChanged(context.Background(), user))
		require.NoError(t, n.SendMFAEnabled(context.Background(), user))

		require.Len(t, mailer.sent, 2)
		assert.Contains(t, mailer.sent[0].HTML, "password for your account was changed")
		assert.Contains(t, mailer.sent[1].HTML, "Two-factor authentication is now enabled")
	})
}

func TestNotifier_FailurePolicy(t *testing.T) {
	user := &domain.User{Email: "alice@example.com", Name: "Alice"}
	boom := errors.New("provider down")

	t.Run("ошибка подавляется", func(t *testing.T) {
		n := newTestNotifier(t, &recordingMailer{err: boom}, true)
		assert.NoError(t, n.SendPasswordChanged(context.Background(), user))
	})

	t.Run("ошибка возвращается", func(t *testing.T) {
		n := newTestNotifier(t, &recordingMailer{err: boom}, false)
		assert.ErrorIs(t, n.SendPasswordChanged(context.Background(), user), boom)
	})
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 168 * time.Hour, want: "7 days"},
		{in: 24 * time.Hour, want: "24 hours"},
		{in: time.Hour, want: "1 hour"},
		{in: 30 * time.Minute, want: "30 minutes"},
		{in: 10 * time.Second, want: "10s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, humanDuration(tt.in))
		})
	}
}

func TestNewMailer(t *testing.T) {
	_, isLog := NewMailer(config.MailConfig{}, logger.Nop()).(*LogMailer)
	assert.True(t, isLog)

	_, isResend := NewMailer(config.MailConfig{ResendAPIKey: "re_test", From: "a@b.c"}, logger.Nop()).(*ResendMailer)
	assert.True(t, isResend)
}

func TestResendMailer_Send(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "Teamhub <no-reply@teamhub.test>")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	m.client.BaseURL = base

	err = m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi"})

	require.NoError(t, err)
	assert.Equal(t, "Teamhub <no-reply@teamhub.test>", payload["from"])
	assert.Equal(t, []any{"alice@example.com"}, payload["to"])
	assert.Equal(t, "Hi", payload["subject"])
}
