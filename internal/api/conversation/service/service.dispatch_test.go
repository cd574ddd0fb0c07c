package conversationsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	channelmodels "kams_hub/internal/api/channel/models"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/provider"
)

// ====================================
// FAKE STORES
// ====================================

type fakeConversationStore struct {
	conversation convmodels.Conversation
	findErr      error
	touched      bool
	touchedAt    int64
	touchErr     error
}

func (f *fakeConversationStore) FindByIdScoped(ctx context.Context, tenantID, conversationID primitive.ObjectID) (convmodels.Conversation, error) {
	if f.findErr != nil {
		return convmodels.Conversation{}, f.findErr
	}
	return f.conversation, nil
}

func (f *fakeConversationStore) TouchLastMessage(ctx context.Context, tenantID, conversationID primitive.ObjectID, at int64) error {
	f.touched = true
	f.touchedAt = at
	return f.touchErr
}

type fakeChannelStore struct {
	channel channelmodels.Channel
	findErr error
}

func (f *fakeChannelStore) FindByIdScoped(ctx context.Context, tenantID, channelID primitive.ObjectID) (channelmodels.Channel, error) {
	if f.findErr != nil {
		return channelmodels.Channel{}, f.findErr
	}
	return f.channel, nil
}

type fakeMessageStore struct {
	appended  []convmodels.Message
	appendErr error
}

func (f *fakeMessageStore) AppendOutbound(ctx context.Context, message convmodels.Message) (convmodels.Message, error) {
	if f.appendErr != nil {
		return convmodels.Message{}, f.appendErr
	}
	message.ID = primitive.NewObjectID()
	message.Direction = convmodels.DirectionOutbound
	message.CreatedAt = 1700000000000
	f.appended = append(f.appended, message)
	return message, nil
}

type fakeAdapter struct {
	receipt *provider.DeliveryReceipt
	sendErr error
	called  bool
	gotText string
}

func (f *fakeAdapter) Send(ctx context.Context, channel *channelmodels.Channel, conversation *convmodels.Conversation, text string) (*provider.DeliveryReceipt, error) {
	f.called = true
	f.gotText = text
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.receipt, nil
}

// newTestDispatch dựng DispatchService với fake stores cho test
func newTestDispatch(conversations *fakeConversationStore, channels *fakeChannelStore, messages *fakeMessageStore, adapter *fakeAdapter, adapterErr error) *DispatchService {
	return &DispatchService{
		conversations: conversations,
		channels:      channels,
		messages:      messages,
		adapters: func(providerType string) (provider.Adapter, error) {
			if adapterErr != nil {
				return nil, adapterErr
			}
			return adapter, nil
		},
	}
}

func validFixtures() (*fakeConversationStore, *fakeChannelStore) {
	tenantID := primitive.NewObjectID()
	channelID := primitive.NewObjectID()
	conversations := &fakeConversationStore{
		conversation: convmodels.Conversation{
			ID:               primitive.NewObjectID(),
			TenantID:         tenantID,
			ChannelID:        channelID,
			ExternalThreadID: "123",
		},
	}
	channels := &fakeChannelStore{
		channel: channelmodels.Channel{
			ID:           channelID,
			TenantID:     tenantID,
			ProviderType: provider.TypeTelegram,
			Credentials:  channelmodels.ChannelCredentials{BotToken: "test:abc"},
			IsActive:     true,
		},
	}
	return conversations, channels
}

// ====================================
// TESTS
// ====================================

// TestDispatchReplyEmptyText kiểm tra text rỗng sau trim bị từ chối trước mọi I/O
func TestDispatchReplyEmptyText(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := service.DispatchReply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), text)
		assert.True(t, errors.Is(err, common.ErrEmptyText), "Text %q phải bị từ chối", text)
	}
	assert.False(t, adapter.called, "Adapter không được gọi khi text rỗng")
	assert.Empty(t, messages.appended, "Không được ghi ledger khi text rỗng")
}

// TestDispatchReplyConversationNotFound kiểm tra hội thoại không tồn tại hoặc khác tenant
func TestDispatchReplyConversationNotFound(t *testing.T) {
	conversations := &fakeConversationStore{findErr: common.ErrNotFound}
	_, channels := validFixtures()
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	_, err := service.DispatchReply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hello")

	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.False(t, adapter.called)
	assert.Empty(t, messages.appended)
}

// TestDispatchReplyChannelNotFound kiểm tra channel của hội thoại không còn thuộc tenant
func TestDispatchReplyChannelNotFound(t *testing.T) {
	conversations, _ := validFixtures()
	channels := &fakeChannelStore{findErr: common.ErrNotFound}
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	_, err := service.DispatchReply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hello")

	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Empty(t, messages.appended)
}

// TestDispatchReplyUnsupportedProvider kiểm tra providerType chưa có adapter
func TestDispatchReplyUnsupportedProvider(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{}
	service := newTestDispatch(conversations, channels, messages, nil, common.ErrUnsupportedProvider)

	_, err := service.DispatchReply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hello")

	assert.True(t, errors.Is(err, common.ErrUnsupportedProvider))
	assert.Empty(t, messages.appended)
}

// TestDispatchReplySendFaultNoLedgerWrite kiểm tra invariant quan trọng nhất:
// send fault thì KHÔNG có dòng Message nào được ghi
func TestDispatchReplySendFaultNoLedgerWrite(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{sendErr: common.ErrProviderUnreachable}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	_, err := service.DispatchReply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hello")

	assert.True(t, errors.Is(err, common.ErrProviderUnreachable))
	assert.True(t, adapter.called)
	assert.Empty(t, messages.appended, "Send fault không được tạo dòng ledger")
	assert.False(t, conversations.touched, "Send fault không được touch hội thoại")
}

// TestDispatchReplyMockedSend kiểm tra send mock thành công: message outbound với
// providerMessageId = nil, raw = {mocked: true}, và lastMessageAt được touch
func TestDispatchReplyMockedSend(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{
		receipt: &provider.DeliveryReceipt{
			ProviderMessageID: nil,
			Raw:               map[string]interface{}{"mocked": true},
		},
	}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	created, err := service.DispatchReply(context.Background(), conversations.conversation.TenantID, conversations.conversation.ID, "  hello  ")

	assert.NoError(t, err)
	assert.Equal(t, "hello", adapter.gotText, "Text phải được trim trước khi gửi")
	if assert.Len(t, messages.appended, 1) {
		msg := messages.appended[0]
		assert.Equal(t, convmodels.DirectionOutbound, created.Direction)
		assert.Nil(t, msg.ProviderMessageID)
		assert.Equal(t, map[string]interface{}{"mocked": true}, msg.Raw)
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, provider.TypeTelegram, msg.Provider)
		assert.Equal(t, conversations.conversation.TenantID, msg.TenantID)
		assert.Equal(t, conversations.conversation.ID, msg.ConversationID)
	}
	assert.True(t, conversations.touched)
	assert.Equal(t, created.CreatedAt, conversations.touchedAt)
}

// TestDispatchReplyRealReceipt kiểm tra receipt thật được ghi nguyên vẹn vào ledger
func TestDispatchReplyRealReceipt(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{}
	providerMessageID := "999"
	adapter := &fakeAdapter{
		receipt: &provider.DeliveryReceipt{
			ProviderMessageID: &providerMessageID,
			Raw:               map[string]interface{}{"ok": true},
		},
	}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	_, err := service.DispatchReply(context.Background(), conversations.conversation.TenantID, conversations.conversation.ID, "hello")

	assert.NoError(t, err)
	if assert.Len(t, messages.appended, 1) {
		if assert.NotNil(t, messages.appended[0].ProviderMessageID) {
			assert.Equal(t, "999", *messages.appended[0].ProviderMessageID)
		}
	}
}

// TestDispatchReplyTouchFailureStillSucceeds kiểm tra touch lastMessageAt là best-effort:
// miss chỉ làm list view cũ đi, không fail cả operation
func TestDispatchReplyTouchFailureStillSucceeds(t *testing.T) {
	conversations, channels := validFixtures()
	conversations.touchErr = common.ErrConnection
	messages := &fakeMessageStore{}
	adapter := &fakeAdapter{
		receipt: &provider.DeliveryReceipt{Raw: map[string]interface{}{"mocked": true}},
	}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	created, err := service.DispatchReply(context.Background(), conversations.conversation.TenantID, conversations.conversation.ID, "hello")

	assert.NoError(t, err, "Touch thất bại không được fail operation")
	assert.False(t, created.ID.IsZero())
	assert.Len(t, messages.appended, 1)
}

// TestDispatchReplyAppendFailure kiểm tra append thất bại sau send thành công:
// lỗi surface cho caller, không nuốt
func TestDispatchReplyAppendFailure(t *testing.T) {
	conversations, channels := validFixtures()
	messages := &fakeMessageStore{appendErr: common.ErrConnection}
	adapter := &fakeAdapter{
		receipt: &provider.DeliveryReceipt{Raw: map[string]interface{}{"mocked": true}},
	}
	service := newTestDispatch(conversations, channels, messages, adapter, nil)

	_, err := service.DispatchReply(context.Background(), conversations.conversation.TenantID, conversations.conversation.ID, "hello")

	assert.True(t, errors.Is(err, common.ErrConnection))
	assert.False(t, conversations.touched, "Không touch khi append thất bại")
}
