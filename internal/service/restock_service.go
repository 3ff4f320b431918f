package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/model"
	"github.com/tokosmart/restock-backend/internal/pipeline"
	"github.com/tokosmart/restock-backend/internal/pipeline/history"
	"github.com/tokosmart/restock-backend/internal/pipeline/projection"
)

// RecommendationRepository persists finished runs. Uploaded datasets are
// never stored, only the per-item results.
type RecommendationRepository interface {
	SaveRun(ctx context.Context, run domain.RecommendationRun, items []domain.RestockRecommendation) error
	ListRuns(ctx context.Context, limit int) ([]domain.RecommendationRun, error)
	GetRunItems(ctx context.Context, runID string) ([]domain.RestockRecommendation, error)
}

// ResultCache holds recent results keyed by dataset digest.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.RecommendationSet, bool, error)
	Set(ctx context.Context, key string, set *domain.RecommendationSet) error
}

// RestockService runs both recommendation pipelines against the artifacts
// loaded at startup. The models and identity map are read-only, so a single
// service instance is safe across concurrent requests.
type RestockService struct {
	historyPipe    *history.Pipeline
	projectionPipe *projection.Pipeline

	repo  RecommendationRepository
	cache ResultCache
}

func NewRestockService(
	restockModel model.Regressor,
	forecastModel model.Regressor,
	codes model.ItemCodeMap,
	horizon int,
	repo RecommendationRepository,
	cache ResultCache,
) *RestockService {
	if cache == nil {
		cache = NewNoopResultCache()
	}
	return &RestockService{
		historyPipe:    history.New(restockModel),
		projectionPipe: projection.New(forecastModel, codes, horizon),
		repo:           repo,
		cache:          cache,
	}
}

// PredictFromHistory validates a full sales-history upload and runs the
// historical-feature pipeline.
func (s *RestockService) PredictFromHistory(ctx context.Context, t *dataset.Table) (*domain.RecommendationSet, error) {
	key := datasetDigest(history.Name, t)
	if set, ok := s.cacheGet(ctx, key); ok {
		return set, nil
	}

	records, err := pipeline.ValidateHistory(t)
	if err != nil {
		return nil, err
	}

	set, err := s.historyPipe.Run(ctx, records)
	if err != nil {
		return nil, runError(history.Name, err)
	}

	s.finishRun(ctx, key, set)
	return set, nil
}

// ProjectWeekAhead validates a current-stock upload and runs the
// forward-projection pipeline.
func (s *RestockService) ProjectWeekAhead(ctx context.Context, t *dataset.Table) (*domain.RecommendationSet, error) {
	key := datasetDigest(projection.Name, t)
	if set, ok := s.cacheGet(ctx, key); ok {
		return set, nil
	}

	levels, err := pipeline.ValidateCurrentStock(t)
	if err != nil {
		return nil, err
	}

	set, err := s.projectionPipe.Run(ctx, levels)
	if err != nil {
		return nil, runError(projection.Name, err)
	}

	s.finishRun(ctx, key, set)
	return set, nil
}

// ListRuns returns persisted run summaries, newest first.
func (s *RestockService) ListRuns(ctx context.Context, limit int) ([]domain.RecommendationRun, error) {
	if s.repo == nil {
		return []domain.RecommendationRun{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRuns(ctx, limit)
}

// GetRunItems returns the stored rows of one run.
func (s *RestockService) GetRunItems(ctx context.Context, runID string) ([]domain.RestockRecommendation, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("run storage is not configured")
	}
	return s.repo.GetRunItems(ctx, runID)
}

func (s *RestockService) cacheGet(ctx context.Context, key string) (*domain.RecommendationSet, bool) {
	set, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("restock: cache get failed")
		return nil, false
	}
	return set, ok
}

// finishRun persists and caches a completed result. Both collaborators are
// best-effort: the recommendation itself is already computed.
func (s *RestockService) finishRun(ctx context.Context, key string, set *domain.RecommendationSet) {
	if err := s.cache.Set(ctx, key, set); err != nil {
		log.Warn().Err(err).Msg("restock: cache set failed")
	}
	if s.repo == nil {
		return
	}
	run := domain.RecommendationRun{
		ID:          uuid.NewString(),
		Pipeline:    set.Pipeline,
		ItemCount:   len(set.Items),
		TotalQty:    set.TotalRestock(),
		GeneratedAt: set.GeneratedAt,
	}
	if err := s.repo.SaveRun(ctx, run, set.Items); err != nil {
		log.Warn().Err(err).Str("pipeline", set.Pipeline).Msg("restock: failed to persist run")
	}
}

// runError keeps the error taxonomy intact while mapping a blown deadline
// to a clear message.
func runError(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s pipeline exceeded its deadline: %w", name, err)
	}
	return err
}

// datasetDigest fingerprints an uploaded table for cache keying.
func datasetDigest(pipelineName string, t *dataset.Table) string {
	h := sha1.New()
	h.Write([]byte(pipelineName))
	for _, c := range t.Columns {
		h.Write([]byte{0})
		h.Write([]byte(c))
	}
	for _, row := range t.Rows {
		h.Write([]byte{1})
		for _, cell := range row {
			h.Write([]byte{0})
			h.Write([]byte(cell))
		}
	}
	return "restock:result:" + hex.EncodeToString(h.Sum(nil))
}

// Export column names, matching the recommendation sheets the store already
// uses downstream.
var exportColumns = []string{
	pipeline.ColCategory,
	pipeline.ColItemName,
	pipeline.ColUnit,
	"STOK_SAAT_INI",
	"PREDIKSI_PERMINTAAN",
	"JUMLAH_RESTOCK",
}

// ResultTable lays a recommendation set out as a tabular export.
func ResultTable(set *domain.RecommendationSet) *dataset.Table {
	t := &dataset.Table{Columns: exportColumns}
	for _, item := range set.Items {
		t.Rows = append(t.Rows, []string{
			item.Category,
			item.ItemName,
			item.Unit,
			strconv.Itoa(item.CurrentStock),
			strconv.Itoa(item.WeeklyDemand),
			strconv.Itoa(item.Restock),
		})
	}
	return t
}

// noopResultCache satisfies ResultCache when caching is disabled.
type noopResultCache struct{}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (noopResultCache) Get(context.Context, string) (*domain.RecommendationSet, bool, error) {
	return nil, false, nil
}

func (noopResultCache) Set(context.Context, string, *domain.RecommendationSet) error {
	return nil
}

var _ ResultCache = (*noopResultCache)(nil)
