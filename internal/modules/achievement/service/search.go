package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/pkg/logger"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const achievementsIndex = "achievements"

// SearchIndex is the full-text index over the catalog.
type SearchIndex interface {
	Index(ctx context.Context, achievements []entity.Achievement) error
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

type meiliSearchIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchIndex(client meilisearch.ServiceManager) SearchIndex {
	s := &meiliSearchIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliSearchIndex) initIndex() {
	filterableAttrs := []string{"category", "rarity"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(achievementsIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		logger.Logger.Warn("meili_filterable_update_failed", zap.String("index", achievementsIndex), zap.Error(err))
	}

	sortableAttrs := []string{"xp_reward"}
	if _, err := s.client.Index(achievementsIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		logger.Logger.Warn("meili_sortable_update_failed", zap.String("index", achievementsIndex), zap.Error(err))
	}
}

type meiliAchievementDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Rarity      string `json:"rarity"`
	XPReward    int    `json:"xp_reward"`
}

func (s *meiliSearchIndex) cleanText(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	return strings.Join(strings.Fields(html.UnescapeString(sanitized)), " ")
}

func (s *meiliSearchIndex) Index(ctx context.Context, achievements []entity.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	docs := make([]meiliAchievementDoc, 0, len(achievements))
	for _, a := range achievements {
		docs = append(docs, meiliAchievementDoc{
			ID:          a.ID.String(),
			Name:        s.cleanText(a.Name),
			Description: s.cleanText(a.Description),
			Category:    a.Category,
			Rarity:      a.Rarity,
			XPReward:    a.XPReward,
		})
	}

	task, err := s.client.Index(achievementsIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index achievements: %w", err)
	}
	logger.Logger.Info("achievements_indexed", zap.Int("count", len(docs)), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliSearchIndex) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	raw, err := s.client.Index(achievementsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search achievements: %w", err)
	}

	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
