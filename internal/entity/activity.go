package entity

import "time"

// ActivityType distinguishes vehicle history record kinds.
type ActivityType string

const (
	ActivityRepair    ActivityType = "repair"
	ActivitySelfCheck ActivityType = "selfCheck"
)

// ActivityRecord is one repair or self-check entry for a vehicle.
type ActivityRecord struct {
	ID         string       `json:"id"`
	VehicleID  string       `json:"vehicle_id"`
	Type       ActivityType `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
}
