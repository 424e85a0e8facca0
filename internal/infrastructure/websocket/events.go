package websocket

import (
	"encoding/json"

	"stakemarket/internal/domain/entity"
)

// Inbound event names (client -> server).
const (
	EventStartChat      = "startChat"
	EventEndChat        = "endChat"
	EventDirectMessage  = "direct-message"
	EventGroupReaction  = "group-reaction"
	EventPrivateReact   = "private-reaction"
	EventGetSeenMessage = "get-seen-message"
	EventSendComMsg     = "send-com-msg"
	EventJoinGroupChat  = "joinGroupChat"
	EventLeaveGroupChat = "leaveGroupChat"
	EventSendComSeenMsg = "send-com-seen-msg"
	EventCastPoolVote   = "cast-pool-vote"
	EventClearPoolVotes = "clear-pool-votes"
	EventJoinRoom       = "joinRoom"
)

// Outbound event names (server -> client/room).
const (
	EventOnlineUsers        = "online-users"
	EventDirectChatHistory  = "direct-chat-history"
	EventComMessageHistory  = "com-message-history"
	EventSeenMessage        = "seen-message-response"
	EventReactionAdded      = "reaction-added"
	EventGroupReactionAdded = "added-group-reaction"
	EventPoolResponse       = "pool-response"
	EventJoinChannelRoom    = "join-channel-room"
	EventLogoutUser         = "logout-user"
	EventBuyerNotification  = "buyerNotification"
	EventSellerNotification = "sellerNotification"
	EventAdminNotification  = "adminNotification"
	EventError              = "error"
)

// Envelope is the wire frame: an event name plus its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads.

type StartChatPayload struct {
	Author   string `json:"author"`
	Receiver string `json:"receiver"`
}

type DirectMessagePayload struct {
	Author   string `json:"author"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

type PrivateReactionPayload struct {
	Reaction   string `json:"reaction"`
	MessageID  string `json:"messageId"`
	ReceiverID string `json:"receiverId"`
	SenderID   string `json:"senderId"`
}

type GroupReactionPayload struct {
	Reaction    string           `json:"reaction"`
	MessageID   string           `json:"messageId"`
	Sender      entity.Principal `json:"senderId"`
	ChannelName string           `json:"channelName"`
}

type SeenMessagePayload struct {
	ConversationID string                 `json:"conversationId"`
	User           string                 `json:"user"`
	Type           entity.PrincipalKind   `json:"type"`
	Message        map[string]interface{} `json:"message,omitempty"`
	MessageID      string                 `json:"messageId,omitempty"`
}

// MessageRef returns the message id from either payload shape: direct seen
// events wrap it in a message object, community seen events send it flat.
func (p SeenMessagePayload) MessageRef() string {
	if p.MessageID != "" {
		return p.MessageID
	}
	if id, ok := p.Message["_id"].(string); ok {
		return id
	}
	return ""
}

type ComMessagePayload struct {
	ProductName    string               `json:"productName"`
	ProductID      string               `json:"productId"`
	ProductOwnerID string               `json:"productOwnerId"`
	ConversationID string               `json:"conversationId"`
	Author         string               `json:"author"`
	UserType       entity.PrincipalKind `json:"user_type"`
	Content        string               `json:"content"`
	Poll           *entity.Poll         `json:"pool,omitempty"`
	Type           string               `json:"type"` // "community" or "stake"
}

type GroupMembershipPayload struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

type CastVotePayload struct {
	OptionID      string               `json:"option_id"`
	MessageID     string               `json:"msg_id"`
	UserID        string               `json:"user_id"`
	Checked       bool                 `json:"checked"`
	AllowMultiple bool                 `json:"allow_multiple"`
	Type          entity.PrincipalKind `json:"type"`
	IsAnonymous   bool                 `json:"isAnonymous"`
}

type ClearVotesPayload struct {
	MessageID string `json:"msg_id"`
	UserID    string `json:"user_id"`
}

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

// Outbound payloads.

type LogoutPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Encode wraps a payload in an Envelope and marshals it.
func Encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
