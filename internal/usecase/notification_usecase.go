package usecase

import (
	"context"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/logger"
)

// NotificationUseCase persists per-recipient notifications and pushes
// best-effort refresh signals. The stored record is the source of truth;
// clients re-fetch on the signal or on reconnect.
type NotificationUseCase struct {
	notifications repository.NotificationRepository
	directory     repository.DirectoryRepository
	hub           *websocket.Hub
}

func NewNotificationUseCase(
	notifications repository.NotificationRepository,
	directory repository.DirectoryRepository,
	hub *websocket.Hub,
) *NotificationUseCase {
	return &NotificationUseCase{
		notifications: notifications,
		directory:     directory,
		hub:           hub,
	}
}

// Notify fans one triggering action out to explicit recipients plus every
// admin holding one of adminRoles, deduplicated by principal id. Each
// recipient gets exactly one record, with the template text for their
// category. Individual create failures are logged and skipped; fan-out is
// at-least-once, best-effort.
func (uc *NotificationUseCase) Notify(ctx context.Context, recipients []entity.Principal, template entity.NotificationTemplate, adminRoles []string) error {
	all := make([]entity.Principal, 0, len(recipients))
	seen := make(map[string]bool)

	for _, r := range recipients {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		all = append(all, r)
	}

	if len(adminRoles) > 0 {
		adminIDs, err := uc.directory.AdminIDsByRole(ctx, adminRoles)
		if err != nil {
			return err
		}
		for _, id := range adminIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			all = append(all, entity.AdminPrincipal(id))
		}
	}

	for _, recipient := range all {
		category := uc.categoryOf(ctx, recipient)

		notification := &entity.Notification{
			RecipientID: recipient.ID,
			ActionType:  template.ActionType,
			Title:       template.Title,
			Message:     template.TextFor(category),
		}
		if err := uc.notifications.Create(ctx, notification); err != nil {
			logger.Error("Failed to create notification for %s: %v", recipient.ID, err)
			continue
		}

		uc.hub.EmitToPrincipal(recipient.ID, refreshEvent(category), nil)
	}

	return nil
}

func (uc *NotificationUseCase) categoryOf(ctx context.Context, p entity.Principal) entity.RecipientCategory {
	if p.Kind == entity.PrincipalAdmin {
		return entity.CategoryAdmin
	}
	user, err := uc.directory.GetUser(ctx, p.ID)
	if err != nil {
		logger.Warn("Failed to resolve category for user %s: %v", p.ID, err)
		return entity.CategoryBuyer
	}
	return user.Category()
}

func refreshEvent(category entity.RecipientCategory) string {
	switch category {
	case entity.CategorySeller:
		return websocket.EventSellerNotification
	case entity.CategoryAdmin:
		return websocket.EventAdminNotification
	default:
		return websocket.EventBuyerNotification
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notifications.ListByRecipient(ctx, recipientID, limit, offset)
}

// MarkAllRead is the only notification mutation exposed to recipients.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, recipientID string) error {
	return uc.notifications.MarkAllRead(ctx, recipientID)
}
