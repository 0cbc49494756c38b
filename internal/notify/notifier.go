package notify

import (
	"context"
	"log/slog"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/repository"
)

// Notifier fans out best-effort push notifications. Every failure here is
// logged and swallowed; notification delivery never affects task state.
// Queue redelivery can make the same completion fire twice; accepted, since
// notifications carry no state.
type Notifier struct {
	Profiles repository.ProfileRepository
	Push     PushSender
	Log      *slog.Logger
}

func (n *Notifier) log() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

// NotifyCompletion tells the user a new report is ready. No-op when the
// user has no registered device tokens.
func (n *Notifier) NotifyCompletion(ctx context.Context, userID string) {
	n.sendToUser(ctx, userID, completionTemplate, map[string]string{"type": "report_completed"})
}

// NotifyFailure tells the user the run failed, carrying the task error.
func (n *Notifier) NotifyFailure(ctx context.Context, userID string, errMsg string) {
	n.sendToUser(ctx, userID, failureTemplate, map[string]string{
		"type":  "report_failed",
		"error": errMsg,
	})
}

// NotifyGuardians alerts the user's guardians. Gated on the profile's
// explicit opt-in flag and a non-empty guardian list; each guardian's
// tokens are resolved with one profile lookup.
func (n *Notifier) NotifyGuardians(ctx context.Context, userID string, riskType constants.RiskType) {
	log := n.log()

	profile, err := n.Profiles.GetByUserID(ctx, userID)
	if err != nil || profile == nil {
		log.Warn("notify.guardian.profile_lookup_failed", "user_id", userID, "error", err)
		return
	}
	if !profile.GuardianAlertsEnabled || len(profile.GuardianIDs) == 0 {
		return
	}

	tmpl := guardianTemplateFor(riskType)
	data := map[string]string{"type": "guardian_alert", "risk_type": string(riskType), "ward_user_id": userID}

	for _, guardianID := range profile.GuardianIDs {
		guardian, err := n.Profiles.GetByUserID(ctx, guardianID)
		if err != nil || guardian == nil {
			log.Warn("notify.guardian.lookup_failed", "guardian_id", guardianID, "error", err)
			continue
		}
		if len(guardian.DeviceTokens) == 0 {
			continue
		}
		result, err := n.Push.Send(ctx, guardian.DeviceTokens, tmpl.Title, tmpl.Body, data)
		if err != nil {
			log.Warn("notify.guardian.send_failed", "guardian_id", guardianID, "error", err)
			continue
		}
		n.pruneInvalid(ctx, guardianID, result.InvalidTokens)
	}
}

func (n *Notifier) sendToUser(ctx context.Context, userID string, tmpl template, data map[string]string) {
	log := n.log()

	profile, err := n.Profiles.GetByUserID(ctx, userID)
	if err != nil || profile == nil {
		log.Warn("notify.profile_lookup_failed", "user_id", userID, "error", err)
		return
	}
	if len(profile.DeviceTokens) == 0 {
		log.Debug("notify.no_tokens", "user_id", userID)
		return
	}

	result, err := n.Push.Send(ctx, profile.DeviceTokens, tmpl.Title, tmpl.Body, data)
	if err != nil {
		log.Warn("notify.send_failed", "user_id", userID, "error", err)
		return
	}
	n.pruneInvalid(ctx, userID, result.InvalidTokens)
}

// pruneInvalid removes exactly the tokens the provider reported as
// permanently invalid.
func (n *Notifier) pruneInvalid(ctx context.Context, userID string, invalid []string) {
	if len(invalid) == 0 {
		return
	}
	if err := n.Profiles.RemoveDeviceTokens(ctx, userID, invalid); err != nil {
		n.log().Warn("notify.prune_failed", "user_id", userID, "error", err)
	}
}
