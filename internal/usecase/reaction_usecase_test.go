package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakemarket/internal/domain/entity"
	ws "stakemarket/internal/infrastructure/websocket"
)

func TestSetDirectReactionOverwritesAndNotifiesBothSides(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	env.directory.addUser("bob", "Bob", "Seller")

	message, err := env.chatUC.SendDirect(context.Background(), "alice", "bob", "hello")
	require.NoError(t, err)

	alice := connect(env.hub, "sock-a", entity.UserPrincipal("alice"), nil)
	bob := connect(env.hub, "sock-b", entity.UserPrincipal("bob"), nil)

	_, err = env.reactionUC.SetDirectReaction(context.Background(), message.ID, "like", "bob", "alice")
	require.NoError(t, err)
	updated, err := env.reactionUC.SetDirectReaction(context.Background(), message.ID, "love", "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, "love", updated.Reaction)

	for _, client := range []*ws.Client{alice, bob} {
		var count int
		for _, e := range receivedEvents(client) {
			if e.Event == ws.EventReactionAdded {
				count++
			}
		}
		assert.Equal(t, 2, count)
	}
}

func TestSetGroupReactionBroadcastsToRoom(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationCommunity,
		ProductName:    "Widget",
		ProductID:      "p1",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Content:        "hello room",
	})
	require.NoError(t, err)

	member := connect(env.hub, "sock-m", entity.UserPrincipal("alice"), nil)
	env.hub.JoinRoom("sock-m", message.ConversationID)

	_, err = env.reactionUC.SetGroupReaction(context.Background(), message.ID, entity.UserPrincipal("alice"), "like", message.ConversationID)
	require.NoError(t, err)
	updated, err := env.reactionUC.SetGroupReaction(context.Background(), message.ID, entity.UserPrincipal("alice"), "love", message.ConversationID)
	require.NoError(t, err)

	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, "love", updated.Reactions[0].Value)

	var count int
	for _, e := range receivedEvents(member) {
		if e.Event == ws.EventGroupReactionAdded {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCastVoteExclusivityAgainstPersistedState(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationStake,
		ProductName:    "Widget",
		ProductID:      "p1",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Poll: &entity.Poll{
			Question: "Proceed?",
			Options:  []entity.PollOption{{Label: "Yes"}, {Label: "No"}},
		},
	})
	require.NoError(t, err)

	voter := entity.PollVoter{ID: "alice", Kind: entity.PrincipalUser}
	yes := message.Poll.Options[0].ID
	no := message.Poll.Options[1].ID

	_, err = env.reactionUC.CastVote(context.Background(), message.ID, yes, voter, true, false)
	require.NoError(t, err)
	updated, err := env.reactionUC.CastVote(context.Background(), message.ID, no, voter, true, false)
	require.NoError(t, err)

	assert.Empty(t, updated.Poll.Options[0].Voters)
	require.Len(t, updated.Poll.Options[1].Voters, 1)
	assert.Equal(t, "alice", updated.Poll.Options[1].Voters[0].ID)
}

func TestCastVoteUncheckedRemovesFromAllBroadcastState(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationStake,
		ProductName:    "Widget",
		ProductID:      "p2",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Poll: &entity.Poll{
			Question: "Proceed?",
			Options:  []entity.PollOption{{Label: "Yes"}},
		},
	})
	require.NoError(t, err)

	voter := entity.PollVoter{ID: "alice", Kind: entity.PrincipalUser}
	option := message.Poll.Options[0].ID

	_, err = env.reactionUC.CastVote(context.Background(), message.ID, option, voter, true, false)
	require.NoError(t, err)
	updated, err := env.reactionUC.CastVote(context.Background(), message.ID, option, voter, false, false)
	require.NoError(t, err)

	for _, opt := range updated.Poll.Options {
		for _, v := range opt.Voters {
			assert.NotEqual(t, "alice", v.ID)
		}
	}
}

func TestCastVoteUnknownOptionFails(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationCommunity,
		ProductName:    "Widget",
		ProductID:      "p3",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Poll: &entity.Poll{
			Question: "Proceed?",
			Options:  []entity.PollOption{{Label: "Yes"}},
		},
	})
	require.NoError(t, err)

	voter := entity.PollVoter{ID: "alice", Kind: entity.PrincipalUser}
	_, err = env.reactionUC.CastVote(context.Background(), message.ID, "missing", voter, true, false)
	assert.Error(t, err)
}

func TestClearVotesRemovesVoterEverywhere(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationStake,
		ProductName:    "Widget",
		ProductID:      "p4",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Poll: &entity.Poll{
			Question: "Proceed?",
			Options:  []entity.PollOption{{Label: "Yes"}, {Label: "No"}},
		},
	})
	require.NoError(t, err)

	voter := entity.PollVoter{ID: "alice", Kind: entity.PrincipalUser}
	_, err = env.reactionUC.CastVote(context.Background(), message.ID, message.Poll.Options[0].ID, voter, true, true)
	require.NoError(t, err)
	_, err = env.reactionUC.CastVote(context.Background(), message.ID, message.Poll.Options[1].ID, voter, true, true)
	require.NoError(t, err)

	updated, err := env.reactionUC.ClearVotes(context.Background(), message.ID, "alice")
	require.NoError(t, err)

	for _, opt := range updated.Poll.Options {
		assert.Empty(t, opt.Voters)
	}
}

func TestDirectReactionRejectedOnGroupMessage(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("owner", "Owner", "Seller")

	message, err := env.chatUC.SendGroup(context.Background(), GroupMessageInput{
		Kind:           entity.ConversationCommunity,
		ProductName:    "Widget",
		ProductID:      "p5",
		ProductOwnerID: "owner",
		Author:         entity.UserPrincipal("owner"),
		Content:        "hi",
	})
	require.NoError(t, err)

	_, err = env.reactionUC.SetDirectReaction(context.Background(), message.ID, "like", "a", "b")
	assert.Error(t, err)
}
