package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/domain"
)

// WebhookSender posts messages as JSON to a mail relay, authenticated with a
// short-lived bearer JWT. Without a URL it only logs the message.
type WebhookSender struct {
	url     string
	signer  *auth.WebhookSigner
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhookSender builds a sender.
func NewWebhookSender(url string, signer *auth.WebhookSigner, timeout time.Duration, logger *zap.Logger) *WebhookSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{url: url, signer: signer, timeout: timeout, logger: logger}
}

// Send delivers msg. Transport failures and 5xx replies are retryable.
func (s *WebhookSender) Send(ctx context.Context, msg domain.NotificationMessage) error {
	if s.url == "" {
		s.logger.Info("notification",
			zap.String("to", msg.Email),
			zap.String("subject", msg.Subject),
			zap.String("confirm_url", msg.ConfirmURL))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bearer, err := s.signer.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign webhook: %w", err)
	}

	agent := fiber.Post(s.url).
		Set(fiber.HeaderAuthorization, "Bearer "+bearer).
		JSON(msg).
		Timeout(s.timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return retry.RetryableError(fmt.Errorf("post webhook: %w", errs[0]))
	}
	switch {
	case status >= fiber.StatusInternalServerError || status == fiber.StatusTooManyRequests:
		return retry.RetryableError(fmt.Errorf("webhook replied %d: %s", status, body))
	case status >= fiber.StatusBadRequest:
		return fmt.Errorf("webhook rejected message: %d: %s", status, body)
	}
	return nil
}
