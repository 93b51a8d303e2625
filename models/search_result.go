package models

// SearchResult pairs an article snapshot with the relevance score the
// query earned it. Transient; lives only in response payloads.
type SearchResult struct {
	Article
	RelevanceScore float64 `json:"relevance_score"`
}

// Suggestion is a typed autocomplete entry.
type Suggestion struct {
	Suggestion string `json:"suggestion"`
	Type       string `json:"type"` // article, tag, user
}

// SearchResponse is the envelope every search call returns, possibly empty
// but never partial.
type SearchResponse struct {
	Articles   []SearchResult `json:"articles"`
	Users      []User         `json:"users"`
	Tags       []Tag          `json:"tags"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
