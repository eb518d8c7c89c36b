package dto

import (
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type UserResult struct {
	UserID        string
	AlertsCreated int
	// ThresholdsSkipped counts thresholds excluded by the plan limiter,
	// surfaced in digest upsell messaging.
	ThresholdsSkipped int
}

type Summary struct {
	TenantID      string
	AlertsCreated int
	Users         []UserResult
	Errors        []string
}

// AlertCreatedEvent is published to Kafka for the email worker.
type AlertCreatedEvent struct {
	EventType string      `json:"event_type"`
	Alert     model.Alert `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
