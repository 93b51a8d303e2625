package services

import (
	"sort"
	"strings"

	"inkwell/models"
)

// Field weights for relevance scoring. A title hit counts several times
// more than the same token found in the body.
const (
	weightTitleExact    = 10.0
	weightTitleToken    = 5.0
	weightSubtitleToken = 3.0
	weightTagToken      = 2.5
	weightContentToken  = 1.0
)

// RelevanceScorer computes how strongly an article matches a free-text
// query. It is pure: callers fetch the candidate rows, the scorer only
// looks at fields already in memory.
type RelevanceScorer struct{}

// Score returns a non-negative relevance score for the article under the
// given query. Zero means no term overlap. Empty queries are the caller's
// problem: SearchService short-circuits them to an empty result set before
// any scoring happens.
func (RelevanceScorer) Score(a *models.Article, query string) float64 {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return 0
	}

	title := strings.ToLower(a.Title)
	subtitle := strings.ToLower(a.Subtitle)
	content := strings.ToLower(a.Content)

	var score float64
	if title == strings.ToLower(strings.TrimSpace(query)) {
		score += weightTitleExact
	}
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			score += weightTitleToken
		}
		if subtitle != "" && strings.Contains(subtitle, tok) {
			score += weightSubtitleToken
		}
		for _, tag := range a.Tags {
			if strings.Contains(tag.Name, tok) {
				score += weightTagToken
				break
			}
		}
		if content != "" && strings.Contains(content, tok) {
			score += weightContentToken
		}
	}
	return score
}

// Tokenize splits a query on whitespace and lowercases the terms.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// SortByRelevance orders results strictly descending by score. Equal
// scores fall back to published_at descending, then id, so rankings are
// deterministic for a stable dataset.
func SortByRelevance(results []models.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		pi, pj := results[i].PublishedAt, results[j].PublishedAt
		if pi != nil && pj != nil && !pi.Equal(*pj) {
			return pi.After(*pj)
		}
		return results[i].ID < results[j].ID
	})
}
