package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationClient handles HTTP communication with the notification
// service that delivers partner emails. All sends are best effort; the
// portal never fails an operation because an email could not go out.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// notificationRequest is the API request format for the notification service
type notificationRequest struct {
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
}

// NewNotificationClient creates a new notification client. Returns nil when
// NOTIFICATION_SERVICE_URL is not configured, and callers treat a nil client
// as notifications disabled.
func NewNotificationClient() *NotificationClient {
	baseURL := os.Getenv("NOTIFICATION_SERVICE_URL")
	if baseURL == "" {
		return nil
	}

	return &NotificationClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendLeadConvertedNotification tells a partner one of their referrals
// converted and a payment is pending.
func (c *NotificationClient) SendLeadConvertedNotification(ctx context.Context, partnerEmail, partnerName, studentName string) error {
	if c == nil || partnerEmail == "" {
		return nil
	}

	req := &notificationRequest{
		To:       partnerEmail,
		Subject:  "Your referral has converted",
		Template: "lead_converted",
		Variables: map[string]string{
			"partnerName": partnerName,
			"studentName": studentName,
		},
	}

	return c.sendNotification(ctx, req)
}

// SendPaymentReleasedNotification tells a partner their referral payment
// has been released.
func (c *NotificationClient) SendPaymentReleasedNotification(ctx context.Context, partnerEmail, partnerName string, amount float64) error {
	if c == nil || partnerEmail == "" {
		return nil
	}

	req := &notificationRequest{
		To:       partnerEmail,
		Subject:  "Your referral payment has been released",
		Template: "payment_released",
		Variables: map[string]string{
			"partnerName": partnerName,
			"amount":      fmt.Sprintf("%.2f", amount),
		},
	}

	return c.sendNotification(ctx, req)
}

// sendNotification posts a notification request to the notification service
func (c *NotificationClient) sendNotification(ctx context.Context, req *notificationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/notifications/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Internal-Service", "partner-portal-service")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"to":       req.To,
		"template": req.Template,
	}).Info("Notification sent")
	return nil
}
