package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/infrastructure/auth"
	ws "stakemarket/internal/infrastructure/websocket"
	"stakemarket/internal/usecase"
	"stakemarket/pkg/logger"
	"stakemarket/pkg/response"
)

// WebSocketHandler is the gateway: it authenticates the handshake, upgrades
// the connection, rehydrates room membership and runs the per-connection
// dispatch loop.
type WebSocketHandler struct {
	hub           *ws.Hub
	verifier      *auth.Verifier
	conversations *usecase.ConversationUseCase
	chat          *usecase.ChatUseCase
	reactions     *usecase.ReactionUseCase
	upgrader      gorilla.Upgrader
}

func NewWebSocketHandler(
	hub *ws.Hub,
	verifier *auth.Verifier,
	conversations *usecase.ConversationUseCase,
	chat *usecase.ChatUseCase,
	reactions *usecase.ReactionUseCase,
	allowedOrigins []string,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		verifier:      verifier,
		conversations: conversations,
		chat:          chat,
		reactions:     reactions,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handle authenticates and upgrades one connection. A failed handshake is
// rejected with a typed reason before any registry or room mutation.
func (h *WebSocketHandler) Handle(c echo.Context) error {
	token := c.QueryParam("token")
	role := entity.PrincipalKind(c.QueryParam("role"))

	principal, err := h.verifier.Verify(c.Request().Context(), token, role)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return err
	}

	client := ws.NewClient(uuid.New().String(), principal, conn)
	h.hub.AddClient(client)

	// Room rehydration: rejoin every conversation room the principal is a
	// participant of, so broadcasts reach them without a fresh join event.
	if rooms, err := h.conversations.RoomsFor(c.Request().Context(), principal.ID); err == nil {
		for _, room := range rooms {
			h.hub.JoinRoom(client.SocketID, room)
		}
	} else {
		logger.Warn("Room rehydration failed for %s: %v", principal.ID, err)
	}

	h.hub.BroadcastPresence()

	go client.WritePump()
	go h.dispatch(client)
	client.ReadPump(h.hub)

	h.hub.BroadcastPresence()
	return nil
}

// dispatch drains the connection's inbound channel until the read pump
// closes it.
func (h *WebSocketHandler) dispatch(client *ws.Client) {
	for env := range client.Inbound {
		h.handleEvent(client, env)
	}
}

// handleEvent runs one inbound event inside a fault boundary: a panic or
// error in one handler drops that event and answers the originating socket
// with a scoped error, never the process or other connections.
func (h *WebSocketHandler) handleEvent(client *ws.Client, env ws.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic handling %s from %s: %v", env.Event, client.SocketID, r)
			h.emitError(client, env.Event, "internal error")
		}
	}()

	if err := h.route(client, env); err != nil {
		logger.Warn("Event %s from %s failed: %v", env.Event, client.SocketID, err)
		h.emitError(client, env.Event, err.Error())
	}
}

func (h *WebSocketHandler) route(client *ws.Client, env ws.Envelope) error {
	ctx := context.Background()

	switch env.Event {
	case ws.EventStartChat:
		var p ws.StartChatPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		h.hub.StartChat(p.Author, p.Receiver)

	case ws.EventEndChat:
		var p ws.StartChatPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		h.hub.EndChat(p.Author, p.Receiver)

	case ws.EventDirectMessage:
		var p ws.DirectMessagePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.chat.SendDirect(ctx, p.Author, p.Receiver, p.Content)
		return err

	case ws.EventPrivateReact:
		var p ws.PrivateReactionPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.reactions.SetDirectReaction(ctx, p.MessageID, p.Reaction, p.SenderID, p.ReceiverID)
		return err

	case ws.EventGroupReaction:
		var p ws.GroupReactionPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.reactions.SetGroupReaction(ctx, p.MessageID, p.Sender, p.Reaction, p.ChannelName)
		return err

	case ws.EventGetSeenMessage, ws.EventSendComSeenMsg:
		var p ws.SeenMessagePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		reader := entity.Principal{ID: p.User, Kind: p.Type}
		if !reader.Kind.Valid() {
			reader.Kind = entity.PrincipalUser
		}
		_, err := h.chat.MarkSeen(ctx, p.MessageRef(), reader)
		return err

	case ws.EventSendComMsg:
		var p ws.ComMessagePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		kind := entity.ConversationCommunity
		if p.Type == "stake" {
			kind = entity.ConversationStake
		}
		author := entity.Principal{ID: p.Author, Kind: p.UserType}
		if !author.Kind.Valid() {
			author.Kind = entity.PrincipalUser
		}
		_, err := h.chat.SendGroup(ctx, usecase.GroupMessageInput{
			Kind:           kind,
			ProductName:    p.ProductName,
			ProductID:      p.ProductID,
			ProductOwnerID: p.ProductOwnerID,
			Author:         author,
			Content:        p.Content,
			Poll:           p.Poll,
		})
		return err

	case ws.EventJoinGroupChat:
		var p ws.GroupMembershipPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		h.hub.JoinGroup(p.GroupID, p.UserID)
		h.hub.JoinRoom(client.SocketID, p.GroupID)

	case ws.EventLeaveGroupChat:
		var p ws.GroupMembershipPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		h.hub.LeaveGroup(p.GroupID, p.UserID)

	case ws.EventCastPoolVote:
		var p ws.CastVotePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		voter := entity.PollVoter{ID: p.UserID, Kind: p.Type, IsAnonymous: p.IsAnonymous}
		if !voter.Kind.Valid() {
			voter.Kind = entity.PrincipalUser
		}
		_, err := h.reactions.CastVote(ctx, p.MessageID, p.OptionID, voter, p.Checked, p.AllowMultiple)
		return err

	case ws.EventClearPoolVotes:
		var p ws.ClearVotesPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := h.reactions.ClearVotes(ctx, p.MessageID, p.UserID)
		return err

	case ws.EventJoinRoom:
		var p ws.JoinRoomPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		h.hub.JoinRoom(client.SocketID, p.RoomID)

	default:
		h.emitError(client, env.Event, "unknown event")
	}

	return nil
}

func (h *WebSocketHandler) emitError(client *ws.Client, event, message string) {
	h.hub.EmitToSocket(client.SocketID, ws.EventError, ws.ErrorPayload{
		Event:   event,
		Message: message,
	})
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(data, v)
}
