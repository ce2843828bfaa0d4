package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"bookbazar/internal/domain/model"

	"github.com/keighl/postmark"
	"github.com/labstack/gommon/log"
)

type emailSender interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// Postmark経由の送信
type PostmarkMailer struct {
	client  emailSender
	from    string
	baseURL string
}

func NewPostmarkMailer(serverToken, from, baseURL string) *PostmarkMailer {
	return newPostmarkMailer(postmark.NewClient(serverToken, ""), from, baseURL)
}

func newPostmarkMailer(client emailSender, from, baseURL string) *PostmarkMailer {
	return &PostmarkMailer{client: client, from: from, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *PostmarkMailer) send(to, subject, html, text string) error {
	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HtmlBody: html,
		TextBody: text,
		Tag:      strings.ToLower(strings.ReplaceAll(subject, " ", "-")),
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("send email: postmark error %d: %s", res.ErrorCode, res.Message)
	}
	return nil
}

func (m *PostmarkMailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (m *PostmarkMailer) SendVerificationEmail(_ context.Context, to, name, token string) error {
	link := m.link("/api/v1/auth/verify-email", token)
	return m.send(to, "Verify your email",
		fmt.Sprintf(`<p>Hi %s,</p><p>Please verify your email: <a href="%s">Verify Email</a></p><p>This link expires in 20 minutes.</p>`, name, link),
		fmt.Sprintf("Hi %s,\nPlease verify your email: %s\nThis link expires in 20 minutes.", name, link),
	)
}

func (m *PostmarkMailer) SendPasswordResetEmail(_ context.Context, to, name, token string) error {
	link := m.link("/reset-password", token)
	return m.send(to, "Reset your password",
		fmt.Sprintf(`<p>Hi %s,</p><p>Reset your password: <a href="%s">Reset Password</a></p><p>This link expires in 20 minutes.</p>`, name, link),
		fmt.Sprintf("Hi %s,\nReset your password: %s\nThis link expires in 20 minutes.", name, link),
	)
}

func (m *PostmarkMailer) SendOrderConfirmation(_ context.Context, to string, order model.Order, items []model.OrderItem) error {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%s x %d = %s\n", it.Title, it.Quantity, it.Subtotal().StringFixed(2))
	}
	text := fmt.Sprintf("Thank you for your order #%d.\n\n%sTotal: %s\nPayment method: %s",
		order.ID, b.String(), order.TotalPrice.StringFixed(2), order.PaymentMethod)
	html := "<pre>" + text + "</pre>"
	return m.send(to, fmt.Sprintf("Order #%d confirmed", order.ID), html, text)
}

// POSTMARK_SERVER_TOKENがない開発環境用（ログに出すだけ）
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(_ context.Context, to, _ string, token string) error {
	log.Infof("mail(dev): verification to=%s token=%s", to, token)
	return nil
}

func (LogMailer) SendPasswordResetEmail(_ context.Context, to, _ string, token string) error {
	log.Infof("mail(dev): password reset to=%s token=%s", to, token)
	return nil
}

func (LogMailer) SendOrderConfirmation(_ context.Context, to string, order model.Order, _ []model.OrderItem) error {
	log.Infof("mail(dev): order confirmation to=%s order=%d total=%s", to, order.ID, order.TotalPrice.StringFixed(2))
	return nil
}
