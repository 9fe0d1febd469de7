// Package audit persists security events raised by the session and token
// services. Writes are best-effort: a failed insert is logged and never
// fails the caller.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit/domain"
	auditrepo "github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit/repository"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
)

// Notifier implements the session service's security-event contract by
// persisting one security_events row per event.
type Notifier struct {
	repo auditrepo.Repository
}

// NewNotifier returns a Notifier that persists to repo.
func NewNotifier(repo auditrepo.Repository) *Notifier {
	return &Notifier{repo: repo}
}

// HandleFingerprintMismatch records a refresh presented from a device that no
// longer matches the session's stored fingerprint.
func (n *Notifier) HandleFingerprintMismatch(ctx context.Context, ev sessionservice.FingerprintMismatch) {
	n.write(ctx, &domain.SecurityEvent{
		ID:        uuid.New().String(),
		UserID:    ev.UserID,
		SessionID: ev.SessionID,
		Action:    domain.ActionFingerprintMismatch,
		Reason:    sessionservice.ReasonFingerprintMismatch,
		IPAddress: ev.IPAddress,
		UserAgent: ev.UserAgent,
		CreatedAt: ev.OccurredAt,
	})
}

// HandleSessionRevoked records a session reaching its terminal state.
func (n *Notifier) HandleSessionRevoked(ctx context.Context, ev sessionservice.SessionRevoked) {
	e := &domain.SecurityEvent{
		ID:        uuid.New().String(),
		UserID:    ev.UserID,
		SessionID: ev.SessionID,
		Action:    domain.ActionSessionRevoked,
		Reason:    ev.Reason,
		CreatedAt: ev.RevokedAt,
	}
	if ev.IPAddress != nil {
		e.IPAddress = *ev.IPAddress
	}
	if ev.UserAgent != nil {
		e.UserAgent = *ev.UserAgent
	}
	n.write(ctx, e)
}

func (n *Notifier) write(ctx context.Context, ev *domain.SecurityEvent) {
	if n.repo == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := n.repo.Create(ctx, ev); err != nil {
		log.Printf("audit: failed to record %s for session %s: %v", ev.Action, ev.SessionID, err)
	}
}
