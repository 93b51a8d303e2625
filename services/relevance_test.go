package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inkwell/models"
)

func TestRelevanceScorer(t *testing.T) {
	var scorer RelevanceScorer

	t.Run("no overlap scores zero", func(t *testing.T) {
		a := models.Article{Title: "Cooking with Cast Iron", Content: "Season the pan well."}
		assert.Zero(t, scorer.Score(&a, "kubernetes"))
	})

	t.Run("title outweighs content", func(t *testing.T) {
		inTitle := models.Article{Title: "Understanding Goroutines", Content: "concurrency primer"}
		inBody := models.Article{Title: "A Concurrency Primer", Content: "goroutines are cheap"}
		assert.Greater(t, scorer.Score(&inTitle, "goroutines"), 2*scorer.Score(&inBody, "goroutines"))
	})

	t.Run("exact title match ranks above partial", func(t *testing.T) {
		exact := models.Article{Title: "Clean Architecture"}
		partial := models.Article{Title: "Clean Architecture in Practice"}
		assert.Greater(t, scorer.Score(&exact, "Clean Architecture"), scorer.Score(&partial, "Clean Architecture"))
	})

	t.Run("subtitle and tags contribute", func(t *testing.T) {
		a := models.Article{
			Title:    "Shipping Faster",
			Subtitle: "A React case study",
			Tags:     []models.Tag{{Name: "react"}},
		}
		bare := models.Article{Title: "Shipping Faster"}
		assert.Greater(t, scorer.Score(&a, "react"), scorer.Score(&bare, "react"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		a := models.Article{Title: "Introduction to JavaScript Programming"}
		assert.Equal(t, scorer.Score(&a, "javascript"), scorer.Score(&a, "JavaScript"))
		assert.Positive(t, scorer.Score(&a, "JavaScript"))
	})
}

func TestSortByRelevance(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	results := []models.SearchResult{
		{Article: models.Article{ID: 1, PublishedAt: &older}, RelevanceScore: 5},
		{Article: models.Article{ID: 2, PublishedAt: &newer}, RelevanceScore: 5},
		{Article: models.Article{ID: 3, PublishedAt: &older}, RelevanceScore: 12},
	}
	SortByRelevance(results)

	assert.Equal(t, uint(3), results[0].ID, "highest score first")
	assert.Equal(t, uint(2), results[1].ID, "newer article wins the tie")
	assert.Equal(t, uint(1), results[2].ID)
}
