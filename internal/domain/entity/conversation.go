package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type ConversationKind string

const (
	ConversationDirect    ConversationKind = "PERSONAL_CHAT"
	ConversationCommunity ConversationKind = "COM_CHAT"
	ConversationStake     ConversationKind = "STAKE_CHAT"
)

func (k ConversationKind) Valid() bool {
	return k == ConversationDirect || k == ConversationCommunity || k == ConversationStake
}

// MessageType returns the message type carried by conversations of this kind.
func (k ConversationKind) MessageType() MessageType {
	switch k {
	case ConversationCommunity:
		return MessageComChat
	case ConversationStake:
		return MessageStakeChat
	default:
		return MessageDirect
	}
}

type Conversation struct {
	ID             string           `json:"id" firestore:"id"`
	Kind           ConversationKind `json:"type" firestore:"type"`
	ChannelKey     string           `json:"channelName" firestore:"channelName"`
	Participants   []Principal      `json:"participants" firestore:"participants"`
	ParticipantIDs []string         `json:"-" firestore:"participantIds"` // query mirror of Participants
	InitiatedBy    Principal        `json:"initBy" firestore:"initBy"`
	MessageIDs     []string         `json:"-" firestore:"messageIds"`
	ProductName    string           `json:"productName,omitempty" firestore:"productName,omitempty"`
	CreatedAt      time.Time        `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time        `json:"updated_at" firestore:"updatedAt"`
}

// DirectChannelKey derives the deterministic channel key for a 1:1
// conversation. The pair is unordered: both orderings map to the same key.
func DirectChannelKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return fmt.Sprintf("direct_%s_%s", pair[0], pair[1])
}

// GroupChannelKey derives the channel key for a product community or stake
// conversation. Spaces are stripped from the product name, matching the key
// format clients already join by.
func GroupChannelKey(kind ConversationKind, productName, productID string) string {
	prefix := "com"
	if kind == ConversationStake {
		prefix = "stake"
	}
	return fmt.Sprintf("%s_%s_%s", prefix, strings.ReplaceAll(productName, " ", ""), productID)
}

func (c *Conversation) HasParticipant(principalID string) bool {
	for _, p := range c.Participants {
		if p.ID == principalID {
			return true
		}
	}
	return false
}

// AddParticipant appends a participant if not already present, preserving
// join order. Returns true when the set changed.
func (c *Conversation) AddParticipant(p Principal) bool {
	if c.HasParticipant(p.ID) {
		return false
	}
	c.Participants = append(c.Participants, p)
	c.ParticipantIDs = append(c.ParticipantIDs, p.ID)
	return true
}

// ReceiversExcept snapshots the current participant set minus the author.
func (c *Conversation) ReceiversExcept(authorID string) []Principal {
	receivers := make([]Principal, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.ID != authorID {
			receivers = append(receivers, p)
		}
	}
	return receivers
}
