package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/productrecommend/backend/internal/domain"
)

// Package-level compiled regex patterns for cache key normalization
var (
	nonWordRegex        = regexp.MustCompile(`[^\p{L}\p{N}\p{Z}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`[\p{Z}\s]+`)
)

// OutcomeRecorder receives parse and presentation events for monitoring
type OutcomeRecorder interface {
	ObserveParse(outcome domain.ParseOutcome)
	ObserveBanner(variant domain.BannerVariant)
	ObserveCache(hit bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveParse(domain.ParseOutcome) {}
func (noopRecorder) ObserveBanner(domain.BannerVariant) {}
func (noopRecorder) ObserveCache(bool) {}

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
	Presenter          PresenterConfig
}

// RecommendationService retrieves a candidate product, parses it and derives its presentation
type RecommendationService struct {
	retriever domain.Retriever
	cache     domain.CacheRepository
	recorder  OutcomeRecorder
	parser    *ResponseParser
	presenter *Presenter
	cacheTTL  time.Duration
	debug     bool
}

// NewRecommendationService creates a new recommendation service with dependencies.
// recorder may be nil.
func NewRecommendationService(
	retriever domain.Retriever,
	cache domain.CacheRepository,
	recorder OutcomeRecorder,
	config RecommendationServiceConfig,
) *RecommendationService {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &RecommendationService{
		retriever: retriever,
		cache:     cache,
		recorder:  recorder,
		parser:    NewResponseParser(config.EnableDebugLogging),
		presenter: NewPresenter(config.Presenter),
		cacheTTL:  cacheTTL,
		debug:     config.EnableDebugLogging,
	}
}

// Recommend looks up a product for a natural-language request.
// Flow: check cache -> retrieve -> cache documents -> parse -> derive
func (s *RecommendationService) Recommend(ctx context.Context, query string) (*domain.ProductView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	docs, err := s.loadDocuments(ctx, query)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			s.recorder.ObserveParse(domain.Failure(parseErr))
			log.Printf("[RECOMMEND] Retrieval result rejected for %q: %s", query, parseErr)
		}
		return nil, err
	}

	return s.Render(domain.NewRawResponse(docs))
}

// Render parses raw and derives its presentation without contacting the retriever.
// Used when redrawing a transcript entry.
func (s *RecommendationService) Render(raw domain.RawResponse) (*domain.ProductView, error) {
	return s.fromOutcome(s.parser.Parse(raw))
}

// RenderJSON is Render for a raw retrieval backend body
func (s *RecommendationService) RenderJSON(body []byte) (*domain.ProductView, error) {
	return s.fromOutcome(s.parser.ParseJSON(body))
}

// Present derives the presentation of an already parsed record.
// The record must carry id, name and price.
func (s *RecommendationService) Present(record domain.ProductRecord) (*domain.ProductView, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return s.view(record), nil
}

func (s *RecommendationService) fromOutcome(outcome domain.ParseOutcome) (*domain.ProductView, error) {
	s.recorder.ObserveParse(outcome)
	if !outcome.OK() {
		log.Printf("[RECOMMEND] Failed to parse retrieval result: %s", outcome.Reason())
		return nil, outcome.Err()
	}
	return s.view(outcome.Record()), nil
}

func (s *RecommendationService) view(record domain.ProductRecord) *domain.ProductView {
	directives := s.presenter.Derive(record)
	for _, d := range directives {
		if banner, ok := d.(domain.StockBanner); ok {
			s.recorder.ObserveBanner(banner.Variant)
		}
	}

	return &domain.ProductView{
		Intro:      IntroMessage,
		Record:     record,
		Directives: directives,
	}
}

// loadDocuments returns cached documents for query or fetches them from the retriever
func (s *RecommendationService) loadDocuments(ctx context.Context, query string) ([]domain.Document, error) {
	cacheKey := generateCacheKey(query)

	if s.cache != nil {
		if docs, err := s.getFromCache(ctx, cacheKey); err == nil {
			s.recorder.ObserveCache(true)
			if s.debug {
				log.Printf("[RECOMMEND] Cache hit for %q", cacheKey)
			}
			return docs, nil
		}
		s.recorder.ObserveCache(false)
	}

	if s.retriever == nil {
		return nil, fmt.Errorf("%w: retriever not configured", domain.ErrRetrieverFailure)
	}

	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	// Empty results are not cached so the next request retries upstream
	if s.cache != nil && len(docs) > 0 {
		if err := s.cache.Set(ctx, cacheKey, docs, s.cacheTTL); err != nil {
			log.Printf("[RECOMMEND] Failed to cache documents for %q: %v", cacheKey, err)
		}
	}

	return docs, nil
}

// getFromCache retrieves documents from cache
func (s *RecommendationService) getFromCache(ctx context.Context, key string) ([]domain.Document, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case []domain.Document:
		return v, nil
	case []interface{}:
		// Stored through a JSON round trip
		return mapToDocuments(v)
	default:
		return nil, domain.ErrCacheMiss
	}
}

// mapToDocuments converts a decoded JSON list back into documents
func mapToDocuments(items []interface{}) ([]domain.Document, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return docs, nil
}

// generateCacheKey creates a normalized cache key from a query.
// Format: "recommend:{normalized_query}"
func generateCacheKey(query string) string {
	return "recommend:" + normalizeForCacheKey(query)
}

// normalizeForCacheKey lower-cases, strips punctuation and collapses whitespace.
// Letters and digits of any script are kept.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonWordRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
