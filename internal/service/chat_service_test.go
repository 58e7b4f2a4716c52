package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchlens/launchlens_api/internal/models"
)

type fakeChatGateway struct {
	lastReports []models.ReportSummary
	reply       *models.ChatReply
}

func (f *fakeChatGateway) Chat(ctx context.Context, message string, history []models.ChatMessage, reports []models.ReportSummary) (*models.ChatReply, error) {
	f.lastReports = reports
	return f.reply, nil
}

type fakeSnapshotStore struct {
	calls     int
	summaries []models.ReportSummary
	err       error
}

func (f *fakeSnapshotStore) ListSummaries(ctx context.Context) ([]models.ReportSummary, error) {
	f.calls++
	return f.summaries, f.err
}

type fakeSnapshotCache struct {
	stored   []models.ReportSummary
	getErr   error
	setCalls int
}

func (f *fakeSnapshotCache) Get(ctx context.Context) ([]models.ReportSummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stored, nil
}

func (f *fakeSnapshotCache) Set(ctx context.Context, summaries []models.ReportSummary) error {
	f.setCalls++
	f.stored = summaries
	return nil
}

func TestChatUsesCachedSnapshot(t *testing.T) {
	cached := []models.ReportSummary{{ID: 1, ProductName: "Trail Mug"}}
	store := &fakeSnapshotStore{}
	gateway := &fakeChatGateway{reply: &models.ChatReply{Message: "hi"}}
	svc := NewChatService(store, gateway, &fakeSnapshotCache{stored: cached})

	reply, err := svc.Chat(context.Background(), "what do I sell?", nil)
	require.NoError(t, err)

	assert.Equal(t, "hi", reply.Message)
	assert.Equal(t, cached, gateway.lastReports)
	assert.Equal(t, 0, store.calls)
}

func TestChatFallsBackToDatabaseOnCacheMiss(t *testing.T) {
	fromDB := []models.ReportSummary{{ID: 2, ProductName: "Camp Stove"}}
	store := &fakeSnapshotStore{summaries: fromDB}
	cache := &fakeSnapshotCache{getErr: errors.New("redis: nil")}
	gateway := &fakeChatGateway{reply: &models.ChatReply{Message: "ok"}}
	svc := NewChatService(store, gateway, cache)

	_, err := svc.Chat(context.Background(), "anything", nil)
	require.NoError(t, err)

	assert.Equal(t, fromDB, gateway.lastReports)
	assert.Equal(t, 1, store.calls)
	// The miss warms the cache for the next request.
	assert.Equal(t, 1, cache.setCalls)
}

func TestChatWorksWithoutCache(t *testing.T) {
	fromDB := []models.ReportSummary{{ID: 3}}
	store := &fakeSnapshotStore{summaries: fromDB}
	gateway := &fakeChatGateway{reply: &models.ChatReply{Message: "ok"}}
	svc := NewChatService(store, gateway, nil)

	_, err := svc.Chat(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, fromDB, gateway.lastReports)
}

func TestChatPropagatesStoreFailure(t *testing.T) {
	store := &fakeSnapshotStore{err: errors.New("db down")}
	svc := NewChatService(store, &fakeChatGateway{}, nil)

	_, err := svc.Chat(context.Background(), "anything", nil)
	assert.Error(t, err)
}

func TestRefreshSnapshotWarmsCache(t *testing.T) {
	fromDB := []models.ReportSummary{{ID: 4, ProductName: "Lantern"}}
	cache := &fakeSnapshotCache{}
	svc := NewChatService(&fakeSnapshotStore{summaries: fromDB}, &fakeChatGateway{}, cache)

	require.NoError(t, svc.RefreshSnapshot(context.Background()))
	assert.Equal(t, fromDB, cache.stored)
}
