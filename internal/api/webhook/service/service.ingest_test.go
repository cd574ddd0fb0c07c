package webhooksvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	channelmodels "kams_hub/internal/api/channel/models"
	convmodels "kams_hub/internal/api/conversation/models"
	webhookmodels "kams_hub/internal/api/webhook/models"
	"kams_hub/internal/common"
	"kams_hub/internal/provider"
)

type fakeIngestChannelStore struct {
	channel channelmodels.Channel
	err     error
}

func (f *fakeIngestChannelStore) FindActiveById(ctx context.Context, channelID primitive.ObjectID) (channelmodels.Channel, error) {
	if f.err != nil {
		return channelmodels.Channel{}, f.err
	}
	return f.channel, nil
}

type fakeIngestConversationStore struct {
	conversation convmodels.Conversation
	err          error
	calls        int

	gotTenantID primitive.ObjectID
	gotThreadID string
	gotHint     convmodels.Participants
}

func (f *fakeIngestConversationStore) Resolve(ctx context.Context, tenantID, channelID primitive.ObjectID, externalThreadID string, hint convmodels.Participants) (convmodels.Conversation, error) {
	f.calls++
	f.gotTenantID = tenantID
	f.gotThreadID = externalThreadID
	f.gotHint = hint
	if f.err != nil {
		return convmodels.Conversation{}, f.err
	}
	return f.conversation, nil
}

type fakeIngestMessageStore struct {
	message    convmodels.Message
	duplicated bool
	err        error
	calls      int

	gotMessage convmodels.Message
}

func (f *fakeIngestMessageStore) AppendInbound(ctx context.Context, message convmodels.Message) (convmodels.Message, bool, error) {
	f.calls++
	f.gotMessage = message
	if f.err != nil {
		return convmodels.Message{}, false, f.err
	}
	return f.message, f.duplicated, nil
}

type fakeIngestLogStore struct {
	entries []webhookmodels.WebhookLog
}

func (f *fakeIngestLogStore) Save(ctx context.Context, log webhookmodels.WebhookLog) (webhookmodels.WebhookLog, error) {
	f.entries = append(f.entries, log)
	return log, nil
}

func (f *fakeIngestLogStore) lastStatus() string {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Status
}

type ingestFixtures struct {
	channel      channelmodels.Channel
	conversation convmodels.Conversation
	message      convmodels.Message
}

func validIngestFixtures() ingestFixtures {
	tenantID := primitive.NewObjectID()
	channelID := primitive.NewObjectID()
	conversationID := primitive.NewObjectID()
	providerMessageID := "456"
	return ingestFixtures{
		channel: channelmodels.Channel{
			ID:           channelID,
			TenantID:     tenantID,
			ProviderType: provider.TypeTelegram,
			IsActive:     true,
		},
		conversation: convmodels.Conversation{
			ID:               conversationID,
			TenantID:         tenantID,
			ChannelID:        channelID,
			ExternalThreadID: "123",
		},
		message: convmodels.Message{
			ID:                primitive.NewObjectID(),
			TenantID:          tenantID,
			ChannelID:         channelID,
			ConversationID:    conversationID,
			Direction:         convmodels.DirectionInbound,
			Provider:          provider.TypeTelegram,
			ProviderMessageID: &providerMessageID,
			Text:              "hello",
		},
	}
}

func newTestIngest(fx ingestFixtures) (*IngestService, *fakeIngestChannelStore, *fakeIngestConversationStore, *fakeIngestMessageStore, *fakeIngestLogStore) {
	channels := &fakeIngestChannelStore{channel: fx.channel}
	conversations := &fakeIngestConversationStore{conversation: fx.conversation}
	messages := &fakeIngestMessageStore{message: fx.message}
	logs := &fakeIngestLogStore{}
	service := &IngestService{
		channelService:      channels,
		conversationService: conversations,
		messageService:      messages,
		webhookLogService:   logs,
	}
	return service, channels, conversations, messages, logs
}

var telegramMessageBody = []byte(`{"update_id":1,"message":{"message_id":456,"chat":{"id":123},"from":{"id":789,"username":"an"},"text":"hello"}}`)

// TestIngestRoundTrip kiểm tra đường đi đầy đủ: webhook hợp lệ đi qua normalize,
// resolve conversation với tenant của channel rồi ghi ledger và audit log accepted
func TestIngestRoundTrip(t *testing.T) {
	fx := validIngestFixtures()
	service, _, conversations, messages, logs := newTestIngest(fx)

	result, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.NoError(t, err)
	assert.False(t, result.Ignored)
	assert.False(t, result.Duplicated)
	assert.Equal(t, fx.conversation.ID, result.Conversation.ID)
	assert.Equal(t, fx.message.ID, result.Message.ID)

	// Tenant lấy từ channel, thread và sender lấy từ payload
	assert.Equal(t, fx.channel.TenantID, conversations.gotTenantID)
	assert.Equal(t, "123", conversations.gotThreadID)
	assert.Equal(t, "789", conversations.gotHint.ExternalUserID)

	if assert.Equal(t, 1, messages.calls) {
		assert.Equal(t, fx.channel.TenantID, messages.gotMessage.TenantID)
		if assert.NotNil(t, messages.gotMessage.ProviderMessageID) {
			assert.Equal(t, "456", *messages.gotMessage.ProviderMessageID)
		}
		assert.Equal(t, "hello", messages.gotMessage.Text)
	}

	assert.Equal(t, webhookmodels.WebhookStatusAccepted, logs.lastStatus())
}

// TestIngestRedelivery kiểm tra provider gửi lại cùng update: ledger báo duplicated,
// pipeline vẫn trả về thành công (accepted) chứ không phải lỗi
func TestIngestRedelivery(t *testing.T) {
	fx := validIngestFixtures()
	service, _, _, messages, logs := newTestIngest(fx)
	messages.duplicated = true

	result, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.NoError(t, err)
	assert.True(t, result.Duplicated)
	assert.Equal(t, fx.message.ID, result.Message.ID)
	assert.Equal(t, webhookmodels.WebhookStatusAccepted, logs.lastStatus())
}

// TestIngestChannelNotFound kiểm tra channel không tồn tại: lỗi surface,
// log rejected được ghi và pipeline dừng trước bước resolve
func TestIngestChannelNotFound(t *testing.T) {
	fx := validIngestFixtures()
	service, channels, conversations, _, logs := newTestIngest(fx)
	channels.err = common.ErrNotFound

	_, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, 0, conversations.calls)
	assert.Equal(t, webhookmodels.WebhookStatusRejected, logs.lastStatus())
}

// TestIngestProviderMismatch kiểm tra path provider lệch với provider của channel:
// trả về NotFound để không tiết lộ channel thuộc provider nào
func TestIngestProviderMismatch(t *testing.T) {
	fx := validIngestFixtures()
	fx.channel.ProviderType = "messenger"
	service, _, conversations, _, logs := newTestIngest(fx)

	_, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, 0, conversations.calls)
	assert.Equal(t, webhookmodels.WebhookStatusRejected, logs.lastStatus())
}

// TestIngestIgnoredUpdate kiểm tra update không phải tin nhắn: ack với Ignored,
// không resolve, không ghi ledger, audit log ignored
func TestIngestIgnoredUpdate(t *testing.T) {
	fx := validIngestFixtures()
	service, _, conversations, messages, logs := newTestIngest(fx)

	body := []byte(`{"update_id":2,"callback_query":{"id":"abc"}}`)
	result, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, body)

	assert.NoError(t, err)
	assert.True(t, result.Ignored)
	assert.Equal(t, 0, conversations.calls)
	assert.Equal(t, 0, messages.calls)
	assert.Equal(t, webhookmodels.WebhookStatusIgnored, logs.lastStatus())
}

// TestIngestMalformedPayload kiểm tra payload hỏng: ErrBadPayload và log rejected
func TestIngestMalformedPayload(t *testing.T) {
	fx := validIngestFixtures()
	service, _, _, messages, logs := newTestIngest(fx)

	body := []byte(`{"message":{"chat":{"id":123}}}`) // thiếu message_id
	_, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, body)

	assert.True(t, errors.Is(err, common.ErrBadPayload))
	assert.Equal(t, 0, messages.calls)
	assert.Equal(t, webhookmodels.WebhookStatusRejected, logs.lastStatus())
}

// TestIngestResolveFailure kiểm tra lỗi storage khi resolve conversation:
// lỗi surface cho provider retry và delivery vẫn có dấu vết rejected trong audit log
func TestIngestResolveFailure(t *testing.T) {
	fx := validIngestFixtures()
	service, _, conversations, messages, logs := newTestIngest(fx)
	conversations.err = common.ErrConnection

	_, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.True(t, errors.Is(err, common.ErrConnection))
	assert.Equal(t, 0, messages.calls)
	assert.Equal(t, webhookmodels.WebhookStatusRejected, logs.lastStatus())
	if assert.NotEmpty(t, logs.entries) {
		last := logs.entries[len(logs.entries)-1]
		assert.Equal(t, fx.channel.TenantID, last.TenantID)
		assert.Equal(t, "conversation resolve failed", last.Reason)
	}
}

// TestIngestAppendFailure kiểm tra lỗi storage khi ghi ledger:
// lỗi surface và delivery có dấu vết rejected trong audit log
func TestIngestAppendFailure(t *testing.T) {
	fx := validIngestFixtures()
	service, _, _, messages, logs := newTestIngest(fx)
	messages.err = common.ErrConnection

	_, err := service.Ingest(context.Background(), provider.TypeTelegram, fx.channel.ID, telegramMessageBody)

	assert.True(t, errors.Is(err, common.ErrConnection))
	assert.Equal(t, webhookmodels.WebhookStatusRejected, logs.lastStatus())
	if assert.NotEmpty(t, logs.entries) {
		last := logs.entries[len(logs.entries)-1]
		assert.Equal(t, "message append failed", last.Reason)
	}
}
