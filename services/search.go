package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell/models"
)

// Entity types a search may be restricted to.
const (
	EntityAll      = "all"
	EntityArticles = "articles"
	EntityUsers    = "users"
	EntityTags     = "tags"
)

const (
	defaultPageSize     = 10
	maxPageSize         = 100
	minSuggestionPrefix = 2
	maxEntityMatches    = 10
)

// Paging carries the configured page-size bounds. Zero values fall back
// to the package defaults, so tests and tools need no configuration.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func (p Paging) bounds() (def, max int) {
	def, max = p.DefaultSize, p.MaxSize
	if def <= 0 {
		def = defaultPageSize
	}
	if max <= 0 {
		max = maxPageSize
	}
	return def, max
}

// normalize clamps malformed paging parameters instead of erroring:
// page is 1-indexed, size bounded to keep responses sane.
func (p Paging) normalize(page, size int) (int, int) {
	def, max := p.bounds()
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = def
	}
	if size > max {
		size = max
	}
	return page, size
}

// limitOrDefault substitutes the configured default for non-positive
// limits.
func (p Paging) limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	def, _ := p.bounds()
	return def
}

// SearchRequest carries everything one search call needs. Request state is
// passed explicitly; services never reach into ambient HTTP state.
type SearchRequest struct {
	Query    string     `json:"query"`
	Tag      string     `json:"tag"`
	AuthorID *uint      `json:"author_id"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	Type     string     `json:"type"` // articles, users, tags, all (default)
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	UserID   *uint      `json:"user_id"` // searcher, for logging only
}

// SearchService answers full-text queries over the published universe:
// relevance ranking, filters, pagination, suggestions and best-effort
// search logging.
type SearchService struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Scorer RelevanceScorer
	Paging Paging
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *gorm.DB, logger *zap.Logger, paging Paging) *SearchService {
	return &SearchService{DB: db, Logger: logger, Paging: paging}
}

// Search runs the query and returns a well-formed envelope, possibly
// empty. A blank query yields total_count == 0 for every entity type:
// browsing is the feed's job, searching nothing finds nothing.
func (s *SearchService) Search(req SearchRequest) (*models.SearchResponse, error) {
	page, size := s.Paging.normalize(req.Page, req.PageSize)
	resp := &models.SearchResponse{
		Articles: []models.SearchResult{},
		Users:    []models.User{},
		Tags:     []models.Tag{},
		Page:     page,
		PageSize: size,
	}

	tokens := Tokenize(req.Query)
	if len(tokens) == 0 {
		return resp, nil
	}

	entity := req.Type
	if entity == "" {
		entity = EntityAll
	}

	if entity == EntityAll || entity == EntityArticles {
		results, total, err := s.searchArticles(req, page, size)
		if err != nil {
			return nil, err
		}
		resp.Articles = results
		resp.TotalCount += total
	}
	if entity == EntityAll || entity == EntityUsers {
		users, err := s.searchUsers(tokens)
		if err != nil {
			return nil, err
		}
		resp.Users = users
		resp.TotalCount += len(users)
	}
	if entity == EntityAll || entity == EntityTags {
		tags, err := s.searchTags(tokens)
		if err != nil {
			return nil, err
		}
		resp.Tags = tags
		resp.TotalCount += len(tags)
	}
	return resp, nil
}

// searchArticles scores the filtered published universe in memory and
// paginates the ranked list. Returns the page plus the total match count.
func (s *SearchService) searchArticles(req SearchRequest, page, size int) ([]models.SearchResult, int, error) {
	query := s.DB.Preload("Tags").
		Where("status = ? AND published_at IS NOT NULL", models.StatusPublished)
	query = applyArticleFilters(query, s.DB, req.Tag, req.AuthorID, req.From, req.To)

	var articles []models.Article
	if err := query.Find(&articles).Error; err != nil {
		s.Logger.Error("article search query failed", zap.Error(err))
		return nil, 0, fmt.Errorf("search articles: %w", err)
	}

	results := make([]models.SearchResult, 0, len(articles))
	for _, a := range articles {
		if score := s.Scorer.Score(&a, req.Query); score > 0 {
			results = append(results, models.SearchResult{Article: a, RelevanceScore: score})
		}
	}
	SortByRelevance(results)

	total := len(results)
	return paginate(results, page, size), total, nil
}

func (s *SearchService) searchUsers(tokens []string) ([]models.User, error) {
	query := s.DB.Model(&models.User{})
	query = query.Where(tokenMatchClause(s.DB, "username", tokens))

	var users []models.User
	if err := query.Order("username ASC").Limit(maxEntityMatches).Find(&users).Error; err != nil {
		s.Logger.Error("user search query failed", zap.Error(err))
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *SearchService) searchTags(tokens []string) ([]models.Tag, error) {
	query := s.DB.Model(&models.Tag{})
	query = query.Where(tokenMatchClause(s.DB, "name", tokens))

	var tags []models.Tag
	if err := query.Order("name ASC").Limit(maxEntityMatches).Find(&tags).Error; err != nil {
		s.Logger.Error("tag search query failed", zap.Error(err))
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return tags, nil
}

// Suggestions returns typed autocomplete entries matching the prefix
// case-insensitively against article titles, tag names and usernames.
// Prefixes shorter than two runes yield an empty list, never an error.
func (s *SearchService) Suggestions(prefix string, limit int) ([]models.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < minSuggestionPrefix {
		return []models.Suggestion{}, nil
	}
	limit = s.Paging.limitOrDefault(limit)
	pattern := "%" + strings.ToLower(prefix) + "%"
	suggestions := make([]models.Suggestion, 0, limit)

	var titles []string
	err := s.DB.Model(&models.Article{}).
		Where("status = ? AND published_at IS NOT NULL", models.StatusPublished).
		Where("LOWER(title) LIKE ?", pattern).
		Order("published_at DESC").
		Limit(limit).
		Pluck("title", &titles).Error
	if err != nil {
		return nil, fmt.Errorf("title suggestions: %w", err)
	}
	for _, t := range titles {
		suggestions = append(suggestions, models.Suggestion{Suggestion: t, Type: "article"})
	}

	var tagNames []string
	err = s.DB.Model(&models.Tag{}).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Limit(limit).
		Pluck("name", &tagNames).Error
	if err != nil {
		return nil, fmt.Errorf("tag suggestions: %w", err)
	}
	for _, n := range tagNames {
		suggestions = append(suggestions, models.Suggestion{Suggestion: n, Type: "tag"})
	}

	var usernames []string
	err = s.DB.Model(&models.User{}).
		Where("LOWER(username) LIKE ?", pattern).
		Order("username ASC").
		Limit(limit).
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("user suggestions: %w", err)
	}
	for _, u := range usernames {
		suggestions = append(suggestions, models.Suggestion{Suggestion: u, Type: "user"})
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// LogSearch appends a search-log row and swallows any failure: analytics
// must never fail a search. Callers dispatch it with `go` off the request
// path.
func (s *SearchService) LogSearch(query string, userID *uint, resultCount int) {
	entry := models.SearchLog{
		Query:       query,
		UserID:      userID,
		ResultCount: resultCount,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		s.Logger.Warn("search log write failed", zap.String("query", query), zap.Error(err))
	}
}

// applyArticleFilters narrows an article query by tag, author and
// published-at range. An unknown tag or author simply matches nothing.
func applyArticleFilters(query *gorm.DB, db *gorm.DB, tag string, authorID *uint, from, to *time.Time) *gorm.DB {
	if tag != "" {
		tagged := db.Table("article_tags").
			Select("article_tags.article_id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("LOWER(tags.name) = ?", strings.ToLower(tag))
		query = query.Where("articles.id IN (?)", tagged)
	}
	if authorID != nil {
		query = query.Where("author_id = ?", *authorID)
	}
	if from != nil {
		query = query.Where("published_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("published_at <= ?", *to)
	}
	return query
}

// tokenMatchClause builds an OR chain matching any token as a
// case-insensitive substring of the column. LOWER(...) LIKE keeps the
// clause portable between postgres and the sqlite test databases.
func tokenMatchClause(db *gorm.DB, column string, tokens []string) *gorm.DB {
	clause := db.Where("LOWER("+column+") LIKE ?", "%"+tokens[0]+"%")
	for _, tok := range tokens[1:] {
		clause = clause.Or("LOWER("+column+") LIKE ?", "%"+tok+"%")
	}
	return clause
}

// paginate slices one 1-indexed page out of a ranked list.
func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
