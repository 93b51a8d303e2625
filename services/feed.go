package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell/models"
)

// FeedFilters narrows the filtered feed; semantics match the search
// filters.
type FeedFilters struct {
	Tag      string     `json:"tag"`
	AuthorID *uint      `json:"author_id"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
}

// FeedService answers the five feed retrieval modes plus the filtered
// feed. Stateless: every call ranks against the current database
// snapshot.
type FeedService struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	Trending TrendingScorer
	Engine   *RecommendationEngine
	Paging   Paging
}

// NewFeedService creates a new FeedService.
func NewFeedService(db *gorm.DB, logger *zap.Logger, engine *RecommendationEngine, paging Paging) *FeedService {
	return &FeedService{DB: db, Logger: logger, Engine: engine, Paging: paging}
}

// published scopes a query to the visible article universe.
func (s *FeedService) published() *gorm.DB {
	return s.DB.Model(&models.Article{}).
		Where("status = ? AND published_at IS NOT NULL", models.StatusPublished)
}

// PublicFeed returns all published articles, newest first.
func (s *FeedService) PublicFeed(page, size int) ([]models.FeedItem, error) {
	page, size = s.Paging.normalize(page, size)
	var articles []models.Article
	err := s.published().Preload("Tags").
		Order("published_at DESC, id ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&articles).Error
	if err != nil {
		s.Logger.Error("public feed query failed", zap.Error(err))
		return nil, fmt.Errorf("public feed: %w", err)
	}
	return asFeedItems(articles, models.FeedTypePublic), nil
}

// PersonalizedFeed delegates to the recommendation engine and backfills
// with public items when personalization comes up short, so a fresh user
// still gets a full page. Backfilled items keep feed_type "public" so
// callers can tell them apart from true recommendations.
func (s *FeedService) PersonalizedFeed(userID uint, page, size int) ([]models.FeedItem, error) {
	page, size = s.Paging.normalize(page, size)
	want := page * size

	recs, err := s.Engine.Recommend(userID, want)
	if err != nil {
		return nil, err
	}
	items := asFeedItems(recs, models.FeedTypePersonalized)

	if len(items) < want {
		seen := lo.Map(recs, func(a models.Article, _ int) uint { return a.ID })
		fill := s.published().Preload("Tags").
			Where("author_id <> ?", userID)
		if len(seen) > 0 {
			fill = fill.Where("id NOT IN ?", seen)
		}
		var backfill []models.Article
		err := fill.Order("published_at DESC, id ASC").
			Limit(want - len(items)).
			Find(&backfill).Error
		if err != nil {
			s.Logger.Error("personalized feed backfill failed", zap.Uint("user_id", userID), zap.Error(err))
			return nil, fmt.Errorf("personalized feed backfill: %w", err)
		}
		items = append(items, asFeedItems(backfill, models.FeedTypePublic)...)
	}
	return paginate(items, page, size), nil
}

// TrendingArticles ranks recently published articles by time-decayed
// engagement. The window is a hard cutoff: anything published before
// asOf-window is excluded outright, no matter its counters.
func (s *FeedService) TrendingArticles(limit int, window string) ([]models.FeedItem, error) {
	limit = s.Paging.limitOrDefault(limit)
	windowDays := ParseTimeframeDays(window)
	asOf := time.Now()
	cutoff := asOf.AddDate(0, 0, -windowDays)

	var articles []models.Article
	err := s.published().Preload("Tags").
		Where("published_at >= ?", cutoff).
		Find(&articles).Error
	if err != nil {
		s.Logger.Error("trending feed query failed", zap.Error(err))
		return nil, fmt.Errorf("trending articles: %w", err)
	}

	items := make([]models.FeedItem, 0, len(articles))
	for _, a := range articles {
		score := s.Trending.Score(&a, asOf, windowDays)
		items = append(items, models.FeedItem{
			Article:       a,
			FeedType:      models.FeedTypeTrending,
			TrendingScore: &score,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if *items[i].TrendingScore != *items[j].TrendingScore {
			return *items[i].TrendingScore > *items[j].TrendingScore
		}
		pi, pj := items[i].PublishedAt, items[j].PublishedAt
		if pi != nil && pj != nil && !pi.Equal(*pj) {
			return pi.After(*pj)
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// PopularArticles ranks by raw all-time engagement. No time window and no
// decay; this is a different algorithm from trending, not a parameter of
// it.
func (s *FeedService) PopularArticles(limit int) ([]models.FeedItem, error) {
	limit = s.Paging.limitOrDefault(limit)
	var articles []models.Article
	err := s.published().Preload("Tags").
		Order("(0.1 * view_count + 0.3 * clap_count + 0.4 * comment_count) DESC").
		Order("published_at DESC, id ASC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		s.Logger.Error("popular feed query failed", zap.Error(err))
		return nil, fmt.Errorf("popular articles: %w", err)
	}
	return asFeedItems(articles, models.FeedTypePopular), nil
}

// LatestArticles is pure chronology: published_at strictly non-increasing.
func (s *FeedService) LatestArticles(limit int) ([]models.FeedItem, error) {
	limit = s.Paging.limitOrDefault(limit)
	var articles []models.Article
	err := s.published().Preload("Tags").
		Order("published_at DESC, id ASC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		s.Logger.Error("latest feed query failed", zap.Error(err))
		return nil, fmt.Errorf("latest articles: %w", err)
	}
	return asFeedItems(articles, models.FeedTypeLatest), nil
}

// FilteredFeed applies the search filter semantics to the whole published
// universe, newest first. Returns the page plus the total match count.
func (s *FeedService) FilteredFeed(filters FeedFilters, page, size int) ([]models.FeedItem, int64, error) {
	page, size = s.Paging.normalize(page, size)
	query := applyArticleFilters(s.published(), s.DB, filters.Tag, filters.AuthorID, filters.From, filters.To).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.Logger.Error("filtered feed count failed", zap.Error(err))
		return nil, 0, fmt.Errorf("filtered feed count: %w", err)
	}

	var articles []models.Article
	err := query.Preload("Tags").
		Order("published_at DESC, id ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&articles).Error
	if err != nil {
		s.Logger.Error("filtered feed query failed", zap.Error(err))
		return nil, 0, fmt.Errorf("filtered feed: %w", err)
	}
	return asFeedItems(articles, models.FeedTypeFiltered), total, nil
}

func asFeedItems(articles []models.Article, feedType string) []models.FeedItem {
	return lo.Map(articles, func(a models.Article, _ int) models.FeedItem {
		return models.FeedItem{Article: a, FeedType: feedType}
	})
}
