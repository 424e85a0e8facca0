package entity

import "time"

type Notification struct {
	ID          string    `json:"id" firestore:"id"`
	RecipientID string    `json:"recipientId" firestore:"recipientId"`
	ActionType  string    `json:"actionType" firestore:"actionType"`
	Title       string    `json:"title" firestore:"title"`
	Message     string    `json:"message" firestore:"message"`
	IsRead      bool      `json:"isRead" firestore:"isRead"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

// RecipientCategory names the bucket a notification recipient falls into.
// Message templates are keyed by category, never by recipient position.
type RecipientCategory string

const (
	CategoryBuyer  RecipientCategory = "buyer"
	CategorySeller RecipientCategory = "seller"
	CategoryAdmin  RecipientCategory = "admin"
)

// NotificationTemplate carries one templated text per recipient category.
// Every recipient within a category receives that category's text.
type NotificationTemplate struct {
	ActionType string
	Title      string
	Variants   map[RecipientCategory]string
}

// TextFor resolves the template text for a category, falling back to the
// admin variant when the category has none of its own.
func (t NotificationTemplate) TextFor(category RecipientCategory) string {
	if text, ok := t.Variants[category]; ok {
		return text
	}
	return t.Variants[CategoryAdmin]
}

// TitleForConversation maps a conversation kind to its notification title.
func TitleForConversation(kind ConversationKind) string {
	switch kind {
	case ConversationDirect:
		return "Personal message"
	case ConversationCommunity:
		return "Community message"
	case ConversationStake:
		return "Investor message"
	default:
		return ""
	}
}
