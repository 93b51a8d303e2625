package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell/models"
)

func buildFeedService(t *testing.T) (*FeedService, *RecommendationEngine, *gorm.DB) {
	db := newTestDB(t)
	engine := NewRecommendationEngine(db, testLogger(), NewInterestModel(db, testLogger()))
	return NewFeedService(db, testLogger(), engine, Paging{}), engine, db
}

func TestPublicFeed(t *testing.T) {
	feed, _, db := buildFeedService(t)

	newest := createArticle(t, db, articleSpec{Title: "Newest", DaysAgo: 0})
	middle := createArticle(t, db, articleSpec{Title: "Middle", DaysAgo: 2})
	oldest := createArticle(t, db, articleSpec{Title: "Oldest", DaysAgo: 5})
	createArticle(t, db, articleSpec{Title: "Hidden Draft", Status: models.StatusDraft})
	createArticle(t, db, articleSpec{Title: "Archived", Status: models.StatusArchived})

	items, err := feed.PublicFeed(1, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{newest.ID, middle.ID, oldest.ID}, []uint{items[0].ID, items[1].ID, items[2].ID})
	for _, item := range items {
		assert.Equal(t, models.FeedTypePublic, item.FeedType)
	}
}

func TestLatestArticlesMonotonic(t *testing.T) {
	feed, _, db := buildFeedService(t)

	for i := 0; i < 6; i++ {
		createArticle(t, db, articleSpec{Title: fmt.Sprintf("Story %d", i), DaysAgo: i})
	}

	items, err := feed.LatestArticles(6)
	require.NoError(t, err)
	require.Len(t, items, 6)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i-1].PublishedAt.Before(*items[i].PublishedAt),
			"published_at must be non-increasing")
	}
	assert.Equal(t, models.FeedTypeLatest, items[0].FeedType)
}

func TestPersonalizedFeed(t *testing.T) {
	feed, _, db := buildFeedService(t)

	react := createTag(t, db, "react")
	reader := createUser(t, db, "reader")
	author := createUser(t, db, "author")

	liked := createArticle(t, db, articleSpec{Title: "React Intro", AuthorID: author.ID, Tags: []models.Tag{react}})
	createClap(t, db, reader.ID, liked.ID, 10)

	recommended := createArticle(t, db, articleSpec{Title: "React Deep Dive", AuthorID: author.ID, DaysAgo: 1, Tags: []models.Tag{react}})
	unrelated := createArticle(t, db, articleSpec{Title: "Watercolor Basics", AuthorID: author.ID, DaysAgo: 2})

	t.Run("recommendations lead, public backfills the page", func(t *testing.T) {
		items, err := feed.PersonalizedFeed(reader.ID, 1, 5)
		require.NoError(t, err)
		require.NotEmpty(t, items)

		assert.Equal(t, recommended.ID, items[0].ID)
		assert.Equal(t, models.FeedTypePersonalized, items[0].FeedType)

		ids := map[uint]bool{}
		for _, item := range items {
			assert.False(t, ids[item.ID], "no duplicates across personalization and backfill")
			ids[item.ID] = true
		}
		assert.True(t, ids[unrelated.ID], "public backfill fills the page")
		for _, item := range items[1:] {
			if item.ID == unrelated.ID {
				assert.Equal(t, models.FeedTypePublic, item.FeedType)
			}
		}
	})

	t.Run("no profile degrades to public content", func(t *testing.T) {
		lurker := createUser(t, db, "lurker")
		items, err := feed.PersonalizedFeed(lurker.ID, 1, 5)
		require.NoError(t, err)
		require.NotEmpty(t, items)
		for _, item := range items {
			assert.Equal(t, models.FeedTypePublic, item.FeedType)
		}
	})
}

func TestTrendingScoreSerialization(t *testing.T) {
	feed, _, db := buildFeedService(t)

	createArticle(t, db, articleSpec{Title: "Quiet Piece", DaysAgo: 1})

	t.Run("a zero score still appears on trending items", func(t *testing.T) {
		items, err := feed.TrendingArticles(10, "7 days")
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].TrendingScore)
		assert.Zero(t, *items[0].TrendingScore)

		data, err := json.Marshal(items[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"trending_score":0`)
	})

	t.Run("other feed modes omit the field", func(t *testing.T) {
		items, err := feed.PublicFeed(1, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].TrendingScore)

		data, err := json.Marshal(items[0])
		require.NoError(t, err)
		assert.NotContains(t, string(data), "trending_score")
	})
}

func TestFilteredFeed(t *testing.T) {
	feed, _, db := buildFeedService(t)

	js := createTag(t, db, "javascript")
	golang := createTag(t, db, "golang")

	jsA := createArticle(t, db, articleSpec{Title: "JS One", DaysAgo: 1, Tags: []models.Tag{js}})
	jsB := createArticle(t, db, articleSpec{Title: "JS Two", DaysAgo: 3, Tags: []models.Tag{js}})
	createArticle(t, db, articleSpec{Title: "Go One", DaysAgo: 2, Tags: []models.Tag{golang}})
	createArticle(t, db, articleSpec{Title: "Untagged", DaysAgo: 4})

	t.Run("tag filter has zero false positives", func(t *testing.T) {
		items, total, err := feed.FilteredFeed(FeedFilters{Tag: "javascript"}, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, jsA.ID, items[0].ID, "newest first")
		assert.Equal(t, jsB.ID, items[1].ID)
		for _, item := range items {
			names := make([]string, 0, len(item.Tags))
			for _, tag := range item.Tags {
				names = append(names, tag.Name)
			}
			assert.Contains(t, names, "javascript")
		}
	})

	t.Run("pagination never duplicates across pages", func(t *testing.T) {
		seen := map[uint]bool{}
		for page := 1; page <= 2; page++ {
			items, total, err := feed.FilteredFeed(FeedFilters{}, page, 2)
			require.NoError(t, err)
			assert.EqualValues(t, 4, total)
			for _, item := range items {
				assert.False(t, seen[item.ID])
				seen[item.ID] = true
			}
		}
		assert.Len(t, seen, 4)
	})

	t.Run("date range filter", func(t *testing.T) {
		fromT := time.Now().AddDate(0, 0, -2).Add(-time.Minute)
		from := &fromT
		items, total, err := feed.FilteredFeed(FeedFilters{From: from}, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, item := range items {
			assert.False(t, item.PublishedAt.Before(*from))
		}
	})

	t.Run("unknown author matches nothing", func(t *testing.T) {
		nobody := uint(9999)
		items, total, err := feed.FilteredFeed(FeedFilters{AuthorID: &nobody}, 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})
}
