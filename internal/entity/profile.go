package entity

import (
	"time"

	"github.com/seongmin-dev/welfare-report/constants"
)

// UserProfile is the slice of the user record the pipeline needs: recipient
// classification, sensor/vehicle linkage and notification targets.
type UserProfile struct {
	UserID                string                  `json:"user_id"`
	RecipientType         constants.RecipientType `json:"recipient_type"`
	District              string                  `json:"district"`
	SensorID              *string                 `json:"sensor_id,omitempty"`
	VehicleID             *string                 `json:"vehicle_id,omitempty"`
	DeviceTokens          []string                `json:"device_tokens"`
	GuardianAlertsEnabled bool                    `json:"guardian_alerts_enabled"`
	GuardianIDs           []string                `json:"guardian_ids"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
}
