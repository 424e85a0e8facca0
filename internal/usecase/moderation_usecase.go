package usecase

import (
	"context"
	"fmt"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/logger"
)

const reportContextSize = 10

// ModerationUseCase handles message reports and the enforcement actions
// taken on them.
type ModerationUseCase struct {
	reports   repository.ReportRepository
	messages  repository.MessageRepository
	directory repository.DirectoryRepository
	sessions  repository.SessionRepository
	notifier  *NotificationUseCase
	hub       *websocket.Hub
}

func NewModerationUseCase(
	reports repository.ReportRepository,
	messages repository.MessageRepository,
	directory repository.DirectoryRepository,
	sessions repository.SessionRepository,
	notifier *NotificationUseCase,
	hub *websocket.Hub,
) *ModerationUseCase {
	return &ModerationUseCase{
		reports:   reports,
		messages:  messages,
		directory: directory,
		sessions:  sessions,
		notifier:  notifier,
		hub:       hub,
	}
}

// ReportMessage records a report with a snapshot of the reported message and
// up to nine preceding messages, then fans out to SUPER_ADMIN admins. The
// snapshot survives later deletion of the messages themselves.
func (uc *ModerationUseCase) ReportMessage(ctx context.Context, reporter entity.Principal, messageID string, reason entity.ReportReason, details string) (*entity.MessageReport, error) {
	if !reason.Valid() {
		return nil, errors.BadRequest("Invalid report reason", nil)
	}

	message, err := uc.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.reports.FindByMessageID(ctx, messageID); err == nil {
		return nil, errors.Conflict("Message already reported", nil)
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	prior, err := uc.messages.ListBefore(ctx, message.ConversationID, messageID, reportContextSize-1)
	if err != nil {
		logger.Warn("Failed to capture report context for %s: %v", messageID, err)
	}

	emails := make(map[string]string)
	snapshot := make([]entity.ReportContextEntry, 0, len(prior)+1)
	for _, m := range append(prior, message) {
		snapshot = append(snapshot, entity.ReportContextEntry{
			Content: m.Content,
			Email:   uc.authorEmail(ctx, emails, m.Author),
		})
	}

	report := &entity.MessageReport{
		MessageID:      messageID,
		ConversationID: message.ConversationID,
		ReportedBy:     reporter,
		Reason:         reason,
		Details:        details,
		MessageContext: snapshot,
		Status:         entity.ReportPending,
		ActionTaken:    entity.ActionNone,
	}
	if err := uc.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	template := entity.NotificationTemplate{
		ActionType: "message_report",
		Title:      "Message reported",
		Variants: map[entity.RecipientCategory]string{
			entity.CategoryAdmin: fmt.Sprintf("A message was reported for %s", reason),
		},
	}
	if err := uc.notifier.Notify(ctx, nil, template, []string{entity.RoleSuperAdmin}); err != nil {
		logger.Error("Report fan-out failed for %s: %v", report.ID, err)
	}

	return report, nil
}

func (uc *ModerationUseCase) authorEmail(ctx context.Context, cache map[string]string, p entity.Principal) string {
	if email, ok := cache[p.ID]; ok {
		return email
	}

	var email string
	if p.Kind == entity.PrincipalAdmin {
		if admin, err := uc.directory.GetAdmin(ctx, p.ID); err == nil {
			email = admin.Email
		}
	} else {
		if user, err := uc.directory.GetUser(ctx, p.ID); err == nil {
			email = user.Email
		}
	}

	cache[p.ID] = email
	return email
}

// BlockPrincipal suspends the account behind a report. The stored session
// token is revoked before the socket is closed; a reconnect with the stale
// token fails the session match no matter how fast it arrives. Blocking an
// already-suspended principal is a no-op.
func (uc *ModerationUseCase) BlockPrincipal(ctx context.Context, adminID, reportID string, target entity.Principal, action entity.ModerationAction, details string) error {
	report, err := uc.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}

	suspended, err := uc.suspend(ctx, target)
	if err != nil {
		return err
	}
	if !suspended {
		return nil
	}

	if err := uc.sessions.Revoke(ctx, target); err != nil {
		return err
	}

	if socketID, ok := uc.hub.Registry().Lookup(target.ID); ok {
		uc.hub.EmitToSocket(socketID, websocket.EventLogoutUser, websocket.LogoutPayload{
			Title:   "Account suspended",
			Message: "Your account has been suspended following a review of reported content",
		})
		uc.hub.DisconnectSocket(socketID)
	}

	if action == "" || action == entity.ActionNone {
		action = entity.ActionTempSuspension
	}
	report.Status = entity.ReportActionTaken
	report.ActionTaken = action
	report.ActionTakenBy = adminID
	report.ActionDetails = details
	return uc.reports.Update(ctx, report)
}

// suspend flips the account status, reporting false when it was already
// suspended.
func (uc *ModerationUseCase) suspend(ctx context.Context, target entity.Principal) (bool, error) {
	if target.Kind == entity.PrincipalAdmin {
		admin, err := uc.directory.GetAdmin(ctx, target.ID)
		if err != nil {
			return false, err
		}
		if admin.Status == entity.StatusSuspended {
			return false, nil
		}
		return true, uc.directory.UpdateAdminStatus(ctx, target.ID, entity.StatusSuspended)
	}

	user, err := uc.directory.GetUser(ctx, target.ID)
	if err != nil {
		return false, err
	}
	if user.Status == entity.StatusSuspended {
		return false, nil
	}
	return true, uc.directory.UpdateUserStatus(ctx, target.ID, entity.StatusSuspended)
}

// DeleteMessage removes a message on moderator authority and notifies its
// author. Any report on the message is marked resolved.
func (uc *ModerationUseCase) DeleteMessage(ctx context.Context, adminID, messageID string) error {
	message, err := uc.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if err := uc.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	if report, err := uc.reports.FindByMessageID(ctx, messageID); err == nil {
		report.Status = entity.ReportActionTaken
		report.ActionTaken = entity.ActionMessageRemoved
		report.ActionTakenBy = adminID
		if err := uc.reports.Update(ctx, report); err != nil {
			logger.Warn("Failed to resolve report for deleted message %s: %v", messageID, err)
		}
	}

	template := entity.NotificationTemplate{
		ActionType: "message_removed",
		Title:      "Message removed",
		Variants: map[entity.RecipientCategory]string{
			entity.CategoryBuyer:  "Your message was removed by a moderator",
			entity.CategorySeller: "Your message was removed by a moderator",
			entity.CategoryAdmin:  "Your message was removed by a moderator",
		},
	}
	if err := uc.notifier.Notify(ctx, []entity.Principal{message.Author}, template, nil); err != nil {
		logger.Error("Delete notification failed for %s: %v", messageID, err)
	}
	return nil
}

// RequestUnblock routes a suspended user's plea to the SUPER_ADMIN bucket.
func (uc *ModerationUseCase) RequestUnblock(ctx context.Context, requester entity.Principal, details string) error {
	text := fmt.Sprintf("User %s requests to be unblocked", requester.ID)
	if details != "" {
		text = fmt.Sprintf("%s: %s", text, details)
	}

	template := entity.NotificationTemplate{
		ActionType: "unblock_request",
		Title:      "Unblock request",
		Variants: map[entity.RecipientCategory]string{
			entity.CategoryAdmin: text,
		},
	}
	return uc.notifier.Notify(ctx, nil, template, []string{entity.RoleSuperAdmin})
}

func (uc *ModerationUseCase) ListReports(ctx context.Context, limit, offset int) ([]*entity.MessageReport, int64, error) {
	return uc.reports.List(ctx, limit, offset)
}
