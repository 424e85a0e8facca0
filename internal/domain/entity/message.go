package entity

import "time"

type MessageType string

const (
	MessageDirect    MessageType = "DIRECT_MESSAGE"
	MessageComChat   MessageType = "COM_CHAT_MESSAGE"
	MessageStakeChat MessageType = "STAKE_CHAT_MESSAGE"
)

// Reaction is a group-chat reaction entry. At most one entry exists per
// sender; a repeated reaction from the same sender overwrites the value.
type Reaction struct {
	Value  string    `json:"reaction" firestore:"reaction"`
	Sender Principal `json:"senderId" firestore:"sender"`
}

type PollVoter struct {
	ID          string        `json:"_id" firestore:"id"`
	Kind        PrincipalKind `json:"model_type" firestore:"modelType"`
	IsAnonymous bool          `json:"isAnonymous" firestore:"isAnonymous"`
}

type PollOption struct {
	ID     string      `json:"_id" firestore:"id"`
	Label  string      `json:"option" firestore:"option"`
	Voters []PollVoter `json:"users" firestore:"voters"`
}

type Poll struct {
	Question      string       `json:"question" firestore:"question"`
	Options       []PollOption `json:"options" firestore:"options"`
	AllowMultiple bool         `json:"allow_multiple" firestore:"allowMultiple"`
}

type Message struct {
	ID             string      `json:"id" firestore:"id"`
	ConversationID string      `json:"conversationId" firestore:"conversationId"`
	Author         Principal   `json:"author" firestore:"author"`
	Type           MessageType `json:"type" firestore:"type"`
	Content        string      `json:"content,omitempty" firestore:"content,omitempty"`

	// Receiver is set for direct messages only; Receivers carries the group
	// snapshot, fixed at send time and never recomputed.
	Receiver    *Principal  `json:"receiver,omitempty" firestore:"receiver,omitempty"`
	Receivers   []Principal `json:"receivers,omitempty" firestore:"receivers,omitempty"`
	ReceiverIDs []string    `json:"-" firestore:"receiverIds"` // query mirror of Receiver/Receivers

	ReadBy    []Principal `json:"readBy" firestore:"readBy"`
	ReadByIDs []string    `json:"-" firestore:"readByIds"` // query mirror of ReadBy

	Reaction  string     `json:"reaction,omitempty" firestore:"reaction,omitempty"` // direct chat, last writer wins
	Reactions []Reaction `json:"reactions,omitempty" firestore:"reactions,omitempty"`

	Poll   *Poll `json:"pool,omitempty" firestore:"pool,omitempty"`
	IsPoll bool  `json:"isPool,omitempty" firestore:"isPool,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// AddressedTo reports whether the message is directed at the principal,
// either as the single direct receiver or as a member of the group snapshot.
func (m *Message) AddressedTo(principalID string) bool {
	if m.Receiver != nil && m.Receiver.ID == principalID {
		return true
	}
	for _, r := range m.Receivers {
		if r.ID == principalID {
			return true
		}
	}
	return false
}

func (m *Message) IsReadBy(principalID string) bool {
	for _, r := range m.ReadBy {
		if r.ID == principalID {
			return true
		}
	}
	return false
}

// MarkReadBy appends the reader to the read set. The set is append-only and
// guarded by a presence check, so re-application is a no-op.
func (m *Message) MarkReadBy(reader Principal) bool {
	if m.IsReadBy(reader.ID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, reader)
	m.ReadByIDs = append(m.ReadByIDs, reader.ID)
	return true
}

// SetDirectReaction overwrites the single direct-chat reaction scalar.
// There is no per-sender attribution and no history.
func (m *Message) SetDirectReaction(value string) {
	m.Reaction = value
}

// SetGroupReaction updates the sender's existing entry in place or appends a
// new one. Entries are never removed.
func (m *Message) SetGroupReaction(sender Principal, value string) {
	for i := range m.Reactions {
		if m.Reactions[i].Sender.Same(sender) {
			m.Reactions[i].Value = value
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Value: value, Sender: sender})
}

// CastVote applies a vote toggle against the persisted poll state. With
// allowMultiple=false the voter is first removed from every option, so after
// a checked vote they appear in exactly one option's voter set.
func (m *Message) CastVote(optionID string, voter PollVoter, checked, allowMultiple bool) bool {
	if m.Poll == nil {
		return false
	}

	if !allowMultiple {
		m.ClearVotes(voter.ID)
	}

	for i := range m.Poll.Options {
		if m.Poll.Options[i].ID != optionID {
			continue
		}
		if checked {
			for _, v := range m.Poll.Options[i].Voters {
				if v.ID == voter.ID {
					return true
				}
			}
			m.Poll.Options[i].Voters = append(m.Poll.Options[i].Voters, voter)
		} else {
			m.Poll.Options[i].Voters = removeVoter(m.Poll.Options[i].Voters, voter.ID)
		}
		return true
	}
	return false
}

// ClearVotes removes the voter from every option.
func (m *Message) ClearVotes(voterID string) {
	if m.Poll == nil {
		return
	}
	for i := range m.Poll.Options {
		m.Poll.Options[i].Voters = removeVoter(m.Poll.Options[i].Voters, voterID)
	}
}

func removeVoter(voters []PollVoter, voterID string) []PollVoter {
	filtered := voters[:0]
	for _, v := range voters {
		if v.ID != voterID {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
