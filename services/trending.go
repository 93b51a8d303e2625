package services

import (
	"strconv"
	"strings"
	"time"

	"inkwell/models"
)

// Engagement weights for trending and popularity ranking. Comments weigh
// most: they cost the reader more than a clap, which costs more than a
// view.
const (
	trendViewWeight    = 0.1
	trendClapWeight    = 0.3
	trendCommentWeight = 0.4

	// recencyFloor keeps in-window articles from decaying to zero; articles
	// outside the window are excluded before scoring, never floored back in.
	recencyFloor = 0.05

	// DefaultTrendingWindowDays is used when a timeframe cannot be parsed.
	DefaultTrendingWindowDays = 7
)

// TrendingScorer computes a time-decayed popularity score from raw
// engagement counters and article age.
type TrendingScorer struct{}

// Score returns the trending score of an article as of the given instant
// for a window of windowDays. Callers enforce the hard cutoff (published
// within the window) before calling; age beyond the window would only be
// floored here, not excluded.
func (TrendingScorer) Score(a *models.Article, asOf time.Time, windowDays int) float64 {
	base := RawEngagement(a)
	if a.PublishedAt == nil || windowDays <= 0 {
		return base * recencyFloor
	}
	age := asOf.Sub(*a.PublishedAt)
	window := time.Duration(windowDays) * 24 * time.Hour
	recency := 1.0 - float64(age)/float64(window)
	if recency < recencyFloor {
		recency = recencyFloor
	}
	if recency > 1.0 {
		recency = 1.0 // published after asOf
	}
	return base * recency
}

// RawEngagement is the undecayed engagement score used for all-time
// popularity ranking.
func RawEngagement(a *models.Article) float64 {
	return trendViewWeight*float64(a.ViewCount) +
		trendClapWeight*float64(a.ClapCount) +
		trendCommentWeight*float64(a.CommentCount)
}

// ParseTimeframeDays converts a human timeframe ("7 days", "2 weeks",
// "1 month") into a day count. Unparseable input falls back to
// DefaultTrendingWindowDays rather than erroring; a bad window is a
// degraded ranking, not a failed request.
func ParseTimeframeDays(timeframe string) int {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(timeframe)))
	if len(fields) != 2 {
		return DefaultTrendingWindowDays
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return DefaultTrendingWindowDays
	}
	switch strings.TrimSuffix(fields[1], "s") {
	case "day":
		return n
	case "week":
		return n * 7
	case "month":
		return n * 30
	default:
		return DefaultTrendingWindowDays
	}
}
