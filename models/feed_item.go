package models

// Feed type labels distinguishing which retrieval mode produced an item.
const (
	FeedTypePublic       = "public"
	FeedTypePersonalized = "personalized"
	FeedTypeTrending     = "trending"
	FeedTypePopular      = "popular"
	FeedTypeLatest       = "latest"
	FeedTypeFiltered     = "filtered"
)

// FeedItem is an article snapshot tagged with the feed mode that surfaced
// it. TrendingScore is nil outside trending feeds, so a genuine zero
// score still serializes.
type FeedItem struct {
	Article
	FeedType      string   `json:"feed_type"`
	TrendingScore *float64 `json:"trending_score,omitempty"`
}

// TagWeight is one entry of a user's interest profile: a tag and the total
// clap weight the user has put behind it. Derived on demand, never stored.
type TagWeight struct {
	Tag    string `json:"tag"`
	Weight int    `json:"weight"`
}
