package entity

import "time"

type ReportReason string

const (
	ReasonInappropriateLanguage ReportReason = "inappropriate language"
	ReasonHarassment            ReportReason = "harassment or abuse"
	ReasonHateSpeech            ReportReason = "hate speech"
	ReasonSpam                  ReportReason = "spam"
	ReasonOther                 ReportReason = "other"
)

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportReviewed    ReportStatus = "reviewed"
	ReportActionTaken ReportStatus = "action taken"
)

type ModerationAction string

const (
	ActionNone           ModerationAction = "none"
	ActionWarning        ModerationAction = "warning"
	ActionTempSuspension ModerationAction = "temporary_suspension"
	ActionPermanentBan   ModerationAction = "permanent_ban"
	ActionMessageRemoved ModerationAction = "message_removed"
)

// ReportContextEntry is a snapshot of one message captured at report time,
// kept even if the message is later deleted.
type ReportContextEntry struct {
	Content string `json:"content" firestore:"content"`
	Email   string `json:"email" firestore:"email"`
}

type MessageReport struct {
	ID             string               `json:"id" firestore:"id"`
	MessageID      string               `json:"messageId" firestore:"messageId"`
	ConversationID string               `json:"conversationId" firestore:"conversationId"`
	ReportedBy     Principal            `json:"reportedBy" firestore:"reportedBy"`
	Reason         ReportReason         `json:"reason" firestore:"reason"`
	Details        string               `json:"details" firestore:"details"`
	MessageContext []ReportContextEntry `json:"messageContext" firestore:"messageContext"`
	Status         ReportStatus         `json:"status" firestore:"status"`
	ActionTaken    ModerationAction     `json:"actionTaken" firestore:"actionTaken"`
	ActionTakenBy  string               `json:"actionTakenBy,omitempty" firestore:"actionTakenBy,omitempty"`
	ActionDetails  string               `json:"actionDetails,omitempty" firestore:"actionDetails,omitempty"`
	CreatedAt      time.Time            `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time            `json:"updated_at" firestore:"updatedAt"`
}

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonInappropriateLanguage, ReasonHarassment, ReasonHateSpeech, ReasonSpam, ReasonOther:
		return true
	}
	return false
}
