package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodshare_web/internal/apperrors"
	"foodshare_web/internal/models"
)

type wsFixture struct {
	msgs     *memMsgRepo
	convs    *memConvRepo
	clock    *fakeClock
	presence *PresenceTracker
	manager  *WebSocketManager
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	msgs := newMemMsgRepo()
	convs := newMemConvRepo()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	presence := NewPresenceTracker(newMemUserRepo(), clock, time.Minute)

	return &wsFixture{
		msgs:     msgs,
		convs:    convs,
		clock:    clock,
		presence: presence,
		manager:  NewWebSocketManager(msgs, convs, presence, clock),
	}
}

func (f *wsFixture) seedConversation(t *testing.T, providerID, charityID uint) *models.Conversation {
	t.Helper()

	conv := &models.Conversation{
		ProviderID: providerID,
		CharityID:  charityID,
		ItemID:     1,
		Status:     models.ConversationOpen,
	}
	require.NoError(t, f.convs.Create(conv))
	return conv
}

// drainEvents 取出客戶端通道中目前累積的所有事件
func drainEvents(client *Client) []*ServerEvent {
	var events []*ServerEvent
	for {
		select {
		case event := <-client.SendChan:
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestJoinRoom(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	client := NewClient(nil, 1, models.RoleProvider)

	require.NoError(t, f.manager.JoinRoom(client, conv.ID))
	require.Equal(t, 1, f.manager.GetRoomClients(conv.ID))

	events := drainEvents(client)
	require.Len(t, events, 1)
	require.Equal(t, EventSystem, events[0].Type)
	require.Equal(t, conv.ID, events[0].RoomID)
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	client := NewClient(nil, 1, models.RoleProvider)

	require.NoError(t, f.manager.JoinRoom(client, conv.ID))
	drainEvents(client)

	require.NoError(t, f.manager.JoinRoom(client, conv.ID))
	require.Equal(t, 1, f.manager.GetRoomClients(conv.ID))
	require.Empty(t, drainEvents(client))
}

func TestJoinRoomRejectsNonParticipant(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	client := NewClient(nil, 3, models.RoleCharity)

	err := f.manager.JoinRoom(client, conv.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	require.Equal(t, 0, f.manager.GetRoomClients(conv.ID))
}

func TestJoinRoomMissingConversation(t *testing.T) {
	f := newWSFixture(t)
	client := NewClient(nil, 1, models.RoleProvider)

	// 對話不存在只略過，不算協議錯誤
	require.NoError(t, f.manager.JoinRoom(client, 99))
	require.Equal(t, 0, f.manager.GetRoomClients(99))
}

func TestSendRequiresMembership(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	client := NewClient(nil, 2, models.RoleCharity)

	_, err := f.manager.Send(client, conv.ID, "hello", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	stored, err := f.msgs.FindByConversationID(conv.ID)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	client := NewClient(nil, 1, models.RoleProvider)
	require.NoError(t, f.manager.JoinRoom(client, conv.ID))

	_, err := f.manager.Send(client, conv.ID, "   ", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSendBroadcastsToAllMembers(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))
	drainEvents(provider)
	drainEvents(charity)

	message, err := f.manager.Send(provider, conv.ID, "今天可以來拿麵包", "temp-1")
	require.NoError(t, err)
	require.NotZero(t, message.ID)
	require.Equal(t, "temp-1", message.TempID)
	require.Equal(t, f.clock.Now(), message.Timestamp)

	// 發送者與對方都收到同一則事件，發送者靠 temp_id 替換樂觀顯示的訊息
	for _, client := range []*Client{provider, charity} {
		events := drainEvents(client)
		require.Len(t, events, 1)
		require.Equal(t, EventNewMessage, events[0].Type)
		require.Equal(t, conv.ID, events[0].RoomID)
		require.Equal(t, "今天可以來拿麵包", events[0].Message.Content)
		require.Equal(t, "temp-1", events[0].Message.TempID)
		require.Equal(t, uint(1), events[0].Message.SenderID)
	}

	stored, err := f.msgs.FindByConversationID(conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestSendOrderingMatchesStore(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))
	drainEvents(provider)
	drainEvents(charity)

	contents := []string{"第一則", "第二則", "第三則"}
	for _, content := range contents {
		_, err := f.manager.Send(provider, conv.ID, content, "")
		require.NoError(t, err)
	}

	stored, err := f.msgs.FindByConversationID(conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, len(contents))

	// 成員收到的順序必須與資料庫中的順序一致
	events := drainEvents(charity)
	require.Len(t, events, len(contents))
	for i, event := range events {
		require.Equal(t, stored[i].ID, event.Message.ID)
		require.Equal(t, contents[i], event.Message.Content)
	}
}

func TestConcurrentSendsDeliverInStoreOrder(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))
	drainEvents(provider)
	drainEvents(charity)

	// 雙方同時發送訊息，彼此交錯的順序不可預期，
	// 但每個成員收到的順序都必須與資料庫中的順序一致
	const perSender = 40
	var wg sync.WaitGroup
	sendErrs := make(chan error, 2*perSender)
	for _, sender := range []*Client{provider, charity} {
		wg.Add(1)
		go func(sender *Client) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				if _, err := f.manager.Send(sender, conv.ID, fmt.Sprintf("用戶 %d 的第 %d 則", sender.UserID, i), ""); err != nil {
					sendErrs <- err
				}
			}
		}(sender)
	}
	wg.Wait()
	close(sendErrs)
	for err := range sendErrs {
		require.NoError(t, err)
	}

	stored, err := f.msgs.FindByConversationID(conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2*perSender)

	for _, client := range []*Client{provider, charity} {
		events := drainEvents(client)
		require.Len(t, events, 2*perSender)
		for i, event := range events {
			require.Equal(t, stored[i].ID, event.Message.ID)
			require.Equal(t, stored[i].Content, event.Message.Content)
		}
	}
}

func TestSendPersistenceFailureSkipsBroadcast(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))
	drainEvents(provider)
	drainEvents(charity)

	f.msgs.createErr = errStorageDown
	_, err := f.manager.Send(provider, conv.ID, "hello", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindPersistence))

	require.Empty(t, drainEvents(provider))
	require.Empty(t, drainEvents(charity))
}

func TestLeaveRoom(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))
	drainEvents(provider)
	drainEvents(charity)

	f.manager.LeaveRoom(provider, conv.ID)
	require.Equal(t, 1, f.manager.GetRoomClients(conv.ID))

	// 留在房間的成員收到離開的系統訊息
	events := drainEvents(charity)
	require.Len(t, events, 1)
	require.Equal(t, EventSystem, events[0].Type)

	_, err := f.manager.Send(provider, conv.ID, "hello", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestDisconnectClearsRoomsAndPresence(t *testing.T) {
	f := newWSFixture(t)
	conv := f.seedConversation(t, 1, 2)
	provider := NewClient(nil, 1, models.RoleProvider)
	charity := NewClient(nil, 2, models.RoleCharity)

	f.presence.MarkOnline(1)
	require.NoError(t, f.manager.JoinRoom(provider, conv.ID))
	require.NoError(t, f.manager.JoinRoom(charity, conv.ID))

	f.manager.Disconnect(provider)
	require.Equal(t, 1, f.manager.GetRoomClients(conv.ID))
	require.False(t, f.presence.IsOnline(1))
}
