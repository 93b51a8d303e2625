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

// recommendSecondaryWindowDays is the decay window for the secondary
// (within-tier) trending sort of recommendations.
const recommendSecondaryWindowDays = 30

// RecommendationEngine turns a user's interest profile into a ranked
// candidate list. It signals "nothing personalized available" by returning
// an empty list; any fallback to public content is the caller's decision.
type RecommendationEngine struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Interests *InterestModel
	Trending  TrendingScorer
}

// NewRecommendationEngine creates a new RecommendationEngine.
func NewRecommendationEngine(db *gorm.DB, logger *zap.Logger, interests *InterestModel) *RecommendationEngine {
	return &RecommendationEngine{DB: db, Logger: logger, Interests: interests}
}

// Recommend returns up to limit distinct published articles matching the
// user's interests, highest-weighted tags first. Articles the user already
// clapped on or authored are excluded. Within one interest tier the
// trending score decides, then recency.
func (e *RecommendationEngine) Recommend(userID uint, limit int) ([]models.Article, error) {
	interests, err := e.Interests.DeriveInterests(userID)
	if err != nil {
		return nil, err
	}
	if len(interests) == 0 {
		return []models.Article{}, nil
	}

	weightByTag := make(map[string]int, len(interests))
	for _, tw := range interests {
		weightByTag[tw.Tag] = tw.Weight
	}
	tagNames := lo.Map(interests, func(tw models.TagWeight, _ int) string { return tw.Tag })

	clapped := e.DB.Model(&models.Clap{}).
		Select("article_id").
		Where("user_id = ?", userID)
	tagged := e.DB.Table("article_tags").
		Select("article_tags.article_id").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("tags.name IN ?", tagNames)

	var candidates []models.Article
	err = e.DB.Preload("Tags").
		Where("status = ? AND published_at IS NOT NULL", models.StatusPublished).
		Where("author_id <> ?", userID).
		Where("id IN (?)", tagged).
		Where("id NOT IN (?)", clapped).
		Find(&candidates).Error
	if err != nil {
		e.Logger.Error("recommendation candidate query failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("recommend for user %d: %w", userID, err)
	}

	now := time.Now()
	type scored struct {
		article    models.Article
		tagWeight  int
		engagement float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, a := range candidates {
		best := 0
		for _, tag := range a.Tags {
			if w := weightByTag[tag.Name]; w > best {
				best = w
			}
		}
		ranked = append(ranked, scored{
			article:    a,
			tagWeight:  best,
			engagement: e.Trending.Score(&a, now, recommendSecondaryWindowDays),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].tagWeight != ranked[j].tagWeight {
			return ranked[i].tagWeight > ranked[j].tagWeight
		}
		if ranked[i].engagement != ranked[j].engagement {
			return ranked[i].engagement > ranked[j].engagement
		}
		pi, pj := ranked[i].article.PublishedAt, ranked[j].article.PublishedAt
		if pi != nil && pj != nil && !pi.Equal(*pj) {
			return pi.After(*pj)
		}
		return ranked[i].article.ID < ranked[j].article.ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return lo.Map(ranked, func(s scored, _ int) models.Article { return s.article }), nil
}
