package app

import (
	"context"
	"crypto/sha1"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"paperbase/internal/ai"
	"paperbase/internal/model"
	"paperbase/internal/vector"
)

// Scoring constants are part of the behavioral contract: only relative
// ordering matters externally, but the literal values are reproduced by tests.
const (
	scoreKeywordBase     = 10.0
	scoreTitleMatch      = 20.0
	scoreDescMatch       = 8.0
	scoreTagMatch        = 6.0
	semanticWeight       = 30.0
	snippetSwapDelta     = 5.0
	snippetBefore        = 80
	snippetAfter         = 160
	chunkSnippetLimit    = 240
	semanticCandidateCap = 50

	reasonKeyword  = "keyword"
	reasonSemantic = "semantic"

	maxSearchLimit = 100
)

// SearchService ranks documents by a blend of keyword and semantic signals.
// The keyword pass is authoritative; the semantic pass is best effort and its
// failures degrade the search to keyword-only results.
type SearchService struct {
	docStore     DocumentStore
	pageStore    PageStore
	tagStore     TagStore
	embedder     ai.Embedder
	index        vector.Index
	cache        SearchCache
	defaultLimit int
}

func NewSearchService(
	docStore DocumentStore,
	pageStore PageStore,
	tagStore TagStore,
	embedder ai.Embedder,
	index vector.Index,
	cache SearchCache,
	defaultLimit int,
) *SearchService {
	if defaultLimit <= 0 || defaultLimit > maxSearchLimit {
		defaultLimit = 20
	}
	return &SearchService{
		docStore:     docStore,
		pageStore:    pageStore,
		tagStore:     tagStore,
		embedder:     embedder,
		index:        index,
		cache:        cache,
		defaultLimit: defaultLimit,
	}
}

type SearchInput struct {
	Query    string
	TagNames []string
	Limit    int
}

type Hit struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Page       *int     `json:"page"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Snippet    string   `json:"snippet"`
}

type hitAccum struct {
	doc     model.Document
	score   float64
	reasons []string
	snippet string
	page    *int
}

func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]Hit, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	tagNames := normalizeTagNames(input.TagNames)
	cacheKey := searchCacheKey(query, tagNames, limit)
	if s.cache != nil {
		if hits, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			return hits, nil
		}
	}

	candidateIDs, restricted, err := s.filterByTags(tagNames)
	if err != nil {
		return nil, err
	}
	if restricted && len(candidateIDs) == 0 {
		return []Hit{}, nil
	}

	var docs []model.Document
	if restricted {
		docs, err = s.docStore.ListByIDs(candidateIDs)
	} else {
		docs, err = s.docStore.List()
	}
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []Hit{}, nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	texts, err := s.docStore.TextsByDocumentIDs(ids)
	if err != nil {
		return nil, err
	}
	pagesByDoc, err := s.pageStore.MapByDocumentIDs(ids)
	if err != nil {
		return nil, err
	}
	tagsByDoc, err := s.tagStore.NamesByDocumentIDs(ids)
	if err != nil {
		return nil, err
	}

	accums := make(map[string]*hitAccum, len(docs))
	var order []string

	lowerQuery := strings.ToLower(query)
	for _, doc := range docs {
		acc := s.keywordMatch(doc, lowerQuery, texts[doc.ID], pagesByDoc[doc.ID], tagsByDoc[doc.ID])
		if acc == nil {
			continue
		}
		accums[doc.ID] = acc
		order = append(order, doc.ID)
	}

	docByID := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}
	if err := s.semanticPass(ctx, query, limit, docByID, accums, &order); err != nil {
		log.Printf("semantic search pass degraded to keyword-only: %v", err)
	}

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		acc := accums[id]
		hits = append(hits, Hit{
			DocumentID: acc.doc.ID,
			Title:      acc.doc.Title,
			Page:       acc.page,
			Score:      acc.score,
			Reasons:    acc.reasons,
			Snippet:    acc.snippet,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, hits); err != nil {
			log.Printf("cache search results failed: %v", err)
		}
	}
	return hits, nil
}

// filterByTags resolves tag names to the set of document IDs carrying all of
// them. restricted=false means no tags were requested. A nonexistent tag
// short-circuits to an empty restricted set: no document can match it.
func (s *SearchService) filterByTags(names []string) ([]string, bool, error) {
	if len(names) == 0 {
		return nil, false, nil
	}
	tags, err := s.tagStore.GetByNames(names)
	if err != nil {
		return nil, false, err
	}
	if len(tags) < len(names) {
		return nil, true, nil
	}
	tagIDs := make([]uint, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}
	ids, err := s.tagStore.DocumentIDsWithAllTags(tagIDs)
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (s *SearchService) keywordMatch(doc model.Document, lowerQuery, fullText string, pages []model.Page, tagNames []string) *hitAccum {
	title := strings.ToLower(doc.Title)
	desc := strings.ToLower(doc.DescriptionMD)
	tagText := strings.ToLower(strings.Join(tagNames, " "))
	haystack := title + " " + desc + " " + tagText + " " + strings.ToLower(fullText)
	if !strings.Contains(haystack, lowerQuery) {
		return nil
	}

	score := scoreKeywordBase
	if strings.Contains(title, lowerQuery) {
		score += scoreTitleMatch
	}
	if strings.Contains(desc, lowerQuery) {
		score += scoreDescMatch
	}
	if strings.Contains(tagText, lowerQuery) {
		score += scoreTagMatch
	}

	acc := &hitAccum{doc: doc, score: score, reasons: []string{reasonKeyword}}

	for _, page := range pages {
		idx := strings.Index(strings.ToLower(page.Text), lowerQuery)
		if idx < 0 {
			continue
		}
		pageNumber := page.PageNumber
		acc.page = &pageNumber
		acc.snippet = snippetWindow(page.Text, idx, len(lowerQuery))
		break
	}
	if acc.snippet == "" {
		combined := strings.TrimSpace(doc.DescriptionMD + " " + fullText)
		idx := strings.Index(strings.ToLower(combined), lowerQuery)
		if idx < 0 {
			idx = 0
		}
		acc.snippet = snippetWindow(combined, idx, len(lowerQuery))
	}
	return acc
}

// semanticPass adds nearest-neighbor boosts on top of keyword scores. Any
// failure leaves the accumulated keyword results untouched.
func (s *SearchService) semanticPass(
	ctx context.Context,
	query string,
	limit int,
	docByID map[string]model.Document,
	accums map[string]*hitAccum,
	order *[]string,
) error {
	if s.embedder == nil || s.index == nil {
		return nil
	}
	if err := s.index.HealthCheck(ctx); err != nil {
		return err
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return err
	}

	topK := limit * 4
	if topK > semanticCandidateCap {
		topK = semanticCandidateCap
	}
	result, err := s.index.Query(ctx, queryVec, topK, "")
	if err != nil {
		return err
	}

	for i, meta := range result.Metas {
		doc, ok := docByID[meta.DocumentID]
		if !ok {
			// Outside the tag-filtered candidate set, or a stale vector whose
			// document no longer exists.
			continue
		}
		boost := (1 - result.Distances[i]) * semanticWeight
		if boost <= 0 {
			continue
		}

		chunkText := ""
		if i < len(result.Documents) {
			chunkText = result.Documents[i]
		}

		acc, exists := accums[meta.DocumentID]
		if !exists {
			acc = &hitAccum{doc: doc}
			accums[meta.DocumentID] = acc
			*order = append(*order, meta.DocumentID)
		}
		previous := acc.score
		acc.score += boost
		if !containsReason(acc.reasons, reasonSemantic) {
			acc.reasons = append(acc.reasons, reasonSemantic)
		}
		if acc.score-previous > snippetSwapDelta && chunkText != "" {
			acc.snippet = truncateRunes(chunkText, chunkSnippetLimit)
		}
		if acc.page == nil {
			pageStart := meta.PageStart
			if pageStart > 0 {
				acc.page = &pageStart
			}
		}
	}
	return nil
}

func normalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	return normalized
}

// snippetWindow extracts a window around the match: up to snippetBefore bytes
// before it and snippetAfter after the match span, clamped to text bounds and
// widened to rune boundaries so multi-byte text is never cut mid-rune.
func snippetWindow(text string, matchIdx, matchLen int) string {
	if text == "" {
		return ""
	}
	start := matchIdx - snippetBefore
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := matchIdx + matchLen + snippetAfter
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func containsReason(reasons []string, reason string) bool {
	for _, r := range reasons {
		if r == reason {
			return true
		}
	}
	return false
}

func searchCacheKey(query string, tagNames []string, limit int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d", query, strings.Join(tagNames, ","), limit)))
	return fmt.Sprintf("search:%x", sum)
}
