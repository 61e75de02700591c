package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalwager/domain/entities"
	"royalwager/events"
)

type publishedMessage struct {
	subject string
	msgID   string
	data    []byte
}

type fakeMessagePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (f *fakeMessagePublisher) Publish(ctx context.Context, subject string, msgID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, msgID: msgID, data: data})
	return nil
}

type fakeEmbedSender struct {
	channelID string
	embeds    []*discordgo.MessageEmbed
	err       error
}

func (f *fakeEmbedSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelID = channelID
	if f.err != nil {
		return nil, f.err
	}
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, nil
}

func completedEvent() events.WagerStateChangeEvent {
	winner := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	return events.WagerStateChangeEvent{
		WagerID:   42,
		OldStatus: entities.WagerStatusActive,
		NewStatus: entities.WagerStatusCompleted,
		CreatorID: winner,
		WinnerID:  &winner,
		Amount:    decimal.RequireFromString("1.5"),
	}
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		name     string
		event    events.Event
		expected string
	}{
		{
			name:     "state change",
			event:    completedEvent(),
			expected: "wagers.42.wager_state_change",
		},
		{
			name:     "deposit",
			event:    events.DepositRecordedEvent{WagerID: 7, Party: entities.PartyCreator},
			expected: "wagers.7.deposit_recorded",
		},
		{
			name:     "settlement",
			event:    events.SettlementRecordedEvent{WagerID: 9, Kind: entities.SettlementKindRefund},
			expected: "wagers.9.settlement_recorded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.expected, subject)
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(subject))
		})
	}

	assert.Equal(t, []string{"wagers.>"}, mapper.GetAllSubjects())
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	t.Run("publishes envelope and emits locally", func(t *testing.T) {
		sink := &fakeMessagePublisher{}
		bus := events.NewBus()
		received := make(chan events.Event, 1)
		bus.Subscribe(events.EventTypeWagerStateChange, func(ctx context.Context, e events.Event) {
			received <- e
		})

		publisher := NewNATSEventPublisher(sink, NewEventSubjectMapper(), bus, nil)
		require.NoError(t, publisher.Publish(completedEvent()))

		require.Len(t, sink.messages, 1)
		msg := sink.messages[0]
		assert.Equal(t, "wagers.42.wager_state_change", msg.subject)

		var envelope EventEnvelope
		require.NoError(t, json.Unmarshal(msg.data, &envelope))
		assert.Equal(t, msg.msgID, envelope.EventID)
		assert.Equal(t, "wager_state_change", envelope.EventType)
		assert.Equal(t, "royalwager", envelope.SourceService)

		var payload events.WagerStateChangeEvent
		require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
		assert.Equal(t, int64(42), payload.WagerID)
		assert.Equal(t, entities.WagerStatusCompleted, payload.NewStatus)
		assert.True(t, decimal.RequireFromString("1.5").Equal(payload.Amount))

		select {
		case e := <-received:
			assert.Equal(t, events.EventTypeWagerStateChange, e.Type())
		case <-time.After(time.Second):
			t.Fatal("local bus did not receive the event")
		}
	})

	t.Run("broker failure is returned", func(t *testing.T) {
		sink := &fakeMessagePublisher{err: errors.New("no responders")}
		publisher := NewNATSEventPublisher(sink, NewEventSubjectMapper(), nil, nil)

		err := publisher.Publish(events.DepositRecordedEvent{WagerID: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish event to NATS")
	})

	t.Run("redelivered events share a message id", func(t *testing.T) {
		sink := &fakeMessagePublisher{}
		publisher := NewNATSEventPublisher(sink, NewEventSubjectMapper(), nil, nil)

		require.NoError(t, publisher.Publish(completedEvent()))
		require.NoError(t, publisher.Publish(completedEvent()))
		require.Len(t, sink.messages, 2)
		assert.Equal(t, sink.messages[0].msgID, sink.messages[1].msgID)
	})

	t.Run("distinct occurrences get distinct message ids", func(t *testing.T) {
		sink := &fakeMessagePublisher{}
		publisher := NewNATSEventPublisher(sink, NewEventSubjectMapper(), nil, nil)

		cancelled := completedEvent()
		cancelled.NewStatus = entities.WagerStatusCancelled
		otherWager := completedEvent()
		otherWager.WagerID = 43

		require.NoError(t, publisher.Publish(completedEvent()))
		require.NoError(t, publisher.Publish(cancelled))
		require.NoError(t, publisher.Publish(otherWager))
		require.NoError(t, publisher.Publish(events.DepositRecordedEvent{WagerID: 42, Party: entities.PartyCreator, Signature: "sig-a"}))
		require.NoError(t, publisher.Publish(events.DepositRecordedEvent{WagerID: 42, Party: entities.PartyCreator, Signature: "sig-b"}))

		seen := map[string]bool{}
		for _, m := range sink.messages {
			assert.False(t, seen[m.msgID], "duplicate message id %s", m.msgID)
			seen[m.msgID] = true
		}
	})
}

func TestDiscordNotifier_HandleEvent(t *testing.T) {
	tests := []struct {
		name        string
		status      entities.WagerStatus
		reason      string
		expectTitle string
		expectColor int
	}{
		{"completed", entities.WagerStatusCompleted, "", "🏆 Wager Completed", colorSuccess},
		{"cancelled", entities.WagerStatusCancelled, "timeout_no_matches", "❌ Wager Cancelled", colorDanger},
		{"disputed", entities.WagerStatusDisputed, "crown count mismatch", "⚠️ Wager Disputed", colorWarning},
		{"activated is not announced", entities.WagerStatusActive, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeEmbedSender{}
			notifier := NewDiscordNotifier(sender, "123")

			e := completedEvent()
			e.NewStatus = tt.status
			e.Reason = tt.reason
			notifier.HandleEvent(context.Background(), e)

			if tt.expectTitle == "" {
				assert.Empty(t, sender.embeds)
				return
			}
			require.Len(t, sender.embeds, 1)
			assert.Equal(t, "123", sender.channelID)
			assert.Equal(t, tt.expectTitle, sender.embeds[0].Title)
			assert.Equal(t, tt.expectColor, sender.embeds[0].Color)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, sender.embeds[0].Fields[len(sender.embeds[0].Fields)-1].Value)
			}
		})
	}

	t.Run("ignores other event types", func(t *testing.T) {
		sender := &fakeEmbedSender{}
		NewDiscordNotifier(sender, "123").HandleEvent(context.Background(), events.DepositRecordedEvent{WagerID: 1})
		assert.Empty(t, sender.embeds)
	})

	t.Run("send failure is logged not raised", func(t *testing.T) {
		sender := &fakeEmbedSender{err: errors.New("missing access")}
		assert.NotPanics(t, func() {
			NewDiscordNotifier(sender, "123").HandleEvent(context.Background(), completedEvent())
		})
	})
}

func TestBuildWagerResultEmbed_ShortensWinner(t *testing.T) {
	embed := BuildWagerResultEmbed(completedEvent())
	require.NotNil(t, embed)
	assert.Equal(t, "**9xQe…VFin** won the series", embed.Description)
	assert.Equal(t, "1.5 SOL", embed.Fields[0].Value)
}
