package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/models"
)

// chatGateway is the conversational surface of the generative model.
type chatGateway interface {
	Chat(ctx context.Context, message string, history []models.ChatMessage, reports []models.ReportSummary) (*models.ChatReply, error)
}

// snapshotCache caches the report summaries handed to the model as context.
type snapshotCache interface {
	Get(ctx context.Context) ([]models.ReportSummary, error)
	Set(ctx context.Context, summaries []models.ReportSummary) error
}

// summaryLister loads report summaries from the database.
type summaryLister interface {
	ListSummaries(ctx context.Context) ([]models.ReportSummary, error)
}

// ChatService answers advisor questions grounded in the stored reports.
type ChatService struct {
	store   summaryLister
	gateway chatGateway
	cache   snapshotCache
}

// NewChatService creates a new ChatService. cache may be nil, in which case
// every request loads the snapshot from the database.
func NewChatService(store summaryLister, gateway chatGateway, cache snapshotCache) *ChatService {
	return &ChatService{store: store, gateway: gateway, cache: cache}
}

// Chat loads the report snapshot (cache first, database on miss) and asks
// the model for a reply. Cache failures never fail the request.
func (s *ChatService) Chat(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatReply, error) {
	summaries, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.gateway.Chat(ctx, message, history, summaries)
}

// RefreshSnapshot reloads the snapshot from the database into the cache.
// Called by the warm worker and after writes.
func (s *ChatService) RefreshSnapshot(ctx context.Context) error {
	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.Set(ctx, summaries)
	}
	return nil
}

func (s *ChatService) loadSnapshot(ctx context.Context) ([]models.ReportSummary, error) {
	if s.cache != nil {
		if summaries, err := s.cache.Get(ctx); err == nil {
			return summaries, nil
		}
	}

	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summaries); err != nil {
			log.Warn().Err(err).Msg("Failed to warm report snapshot cache")
		}
	}
	return summaries, nil
}
