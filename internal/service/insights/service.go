// Package insights aggregates an owner's review history into retention
// analytics: stage distribution, subject performance, trend and actionable
// recommendations. Computed snapshots are cached per owner with a short TTL.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/domain/srs"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/store"
)

// Analysis thresholds.
const (
	challengingQualityThreshold = 3.0
	strongSubjectMinReviews     = 5
	maxStrongSubjects           = 3
	maxRecommendations          = 5
	trendMajorityFactor         = 1.5
	trendWindow                 = 5
	consistencyWindowDays       = 30
	minConsistencySamples       = 7
	overdueShareThreshold       = 0.3
	lowConsistencyThreshold     = 0.5
	weakSubjectQualityThreshold = 2.5
	learningShareThreshold      = 0.6
)

// Cache sizing.
const (
	cacheNumCounters = 1e5
	cacheMaxCost     = 1 << 24
	cacheBufferItems = 64
)

// StageCounts is the number of cards in each lifecycle stage.
type StageCounts struct {
	Learning int `json:"learning"`
	Review   int `json:"review"`
	Mature   int `json:"mature"`
}

// SubjectPerformance summarizes review quality within one subject category.
type SubjectPerformance struct {
	Subject        string  `json:"subject"`
	AverageQuality float64 `json:"avg_quality"`
	Reviews        int     `json:"reviews"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// OwnerInsights is a point-in-time analytics snapshot for one owner.
type OwnerInsights struct {
	OwnerID             uuid.UUID            `json:"owner_id"`
	GeneratedAt         time.Time            `json:"generated_at"`
	TotalCards          int                  `json:"total_cards"`
	CardsByStage        StageCounts          `json:"cards_by_stage"`
	AverageRetention    float64              `json:"average_retention"`
	TotalReviews        int                  `json:"total_reviews"`
	StrongestSubjects   []SubjectPerformance `json:"strongest_subjects"`
	ChallengingSubjects []SubjectPerformance `json:"challenging_subjects"`
	RetentionTrend      srs.Trend            `json:"retention_trend"`
	StudyConsistency    float64              `json:"study_consistency"`
	Recommendations     []string             `json:"recommendations"`
}

// InsightsService computes retention analytics for owners.
type InsightsService interface {
	// OwnerInsights returns the owner's analytics snapshot, served from
	// cache when a fresh one exists.
	OwnerInsights(ctx context.Context, ownerID uuid.UUID) (*OwnerInsights, error)

	// Refresh recomputes and re-caches the owner's snapshot, bypassing any
	// cached value.
	Refresh(ctx context.Context, ownerID uuid.UUID) (*OwnerInsights, error)

	// Invalidate drops the owner's cached snapshot.
	Invalidate(ownerID uuid.UUID)
}

// Verify interface compliance at compile time
var _ InsightsService = (*insightsServiceImpl)(nil)

// insightsServiceImpl implements the InsightsService interface.
type insightsServiceImpl struct {
	cards  store.CardStore
	cache  *ristretto.Cache
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures optional behavior of the insights service.
type Option func(*insightsServiceImpl)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(s *insightsServiceImpl) {
		s.now = now
	}
}

// NewInsightsService creates an InsightsService reading from the given card
// store. Snapshots are cached per owner for cacheTTL.
func NewInsightsService(
	cards store.CardStore,
	cacheTTL time.Duration,
	logger *slog.Logger,
	opts ...Option,
) (InsightsService, error) {
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize insights cache: %w", err)
	}

	svc := &insightsServiceImpl{
		cards:  cards,
		cache:  cache,
		ttl:    cacheTTL,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With(slog.String("component", "insights_service")),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// OwnerInsights implements InsightsService.OwnerInsights.
func (s *insightsServiceImpl) OwnerInsights(
	ctx context.Context,
	ownerID uuid.UUID,
) (*OwnerInsights, error) {
	if cached, found := s.cache.Get(ownerID.String()); found {
		if snapshot, ok := cached.(*OwnerInsights); ok {
			return snapshot, nil
		}
	}
	return s.Refresh(ctx, ownerID)
}

// Refresh implements InsightsService.Refresh.
func (s *insightsServiceImpl) Refresh(
	ctx context.Context,
	ownerID uuid.UUID,
) (*OwnerInsights, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cards, err := s.cards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for insights: %w", err)
	}

	snapshot := s.compute(ownerID, cards, log)

	// Ristretto applies writes asynchronously; wait so an immediate
	// OwnerInsights call observes the fresh snapshot.
	s.cache.SetWithTTL(ownerID.String(), snapshot, 1, s.ttl)
	s.cache.Wait()

	log.Debug("insights refreshed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("total_cards", snapshot.TotalCards),
		slog.String("retention_trend", string(snapshot.RetentionTrend)))
	return snapshot, nil
}

// Invalidate implements InsightsService.Invalidate.
func (s *insightsServiceImpl) Invalidate(ownerID uuid.UUID) {
	s.cache.Del(ownerID.String())
}

// subjectAccumulator gathers per-subject quality sums while scanning history.
type subjectAccumulator struct {
	qualitySum int
	reviews    int
}

func (s *insightsServiceImpl) compute(
	ownerID uuid.UUID,
	cards []*domain.LearningCard,
	log *slog.Logger,
) *OwnerInsights {
	now := s.now()
	snapshot := &OwnerInsights{
		OwnerID:     ownerID,
		GeneratedAt: now,
		TotalCards:  len(cards),
	}

	subjects := make(map[string]*subjectAccumulator)
	var (
		retentionSum  float64
		trends        []srs.Trend
		reviewDays    = make(map[string]struct{})
		totalSamples  int
		overdueCount  int
		learningCount int
	)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("skipping malformed card in insights",
				slog.String("card_id", card.CardID.String()),
				slog.String("error", err.Error()))
			snapshot.TotalCards--
			continue
		}

		switch card.GraduationStage {
		case domain.StageLearning:
			snapshot.CardsByStage.Learning++
			learningCount++
		case domain.StageReview:
			snapshot.CardsByStage.Review++
		case domain.StageMature:
			snapshot.CardsByStage.Mature++
		}

		retentionSum += card.Metrics.RetentionStrength
		if card.IsDue(now) {
			overdueCount++
		}

		// Legacy histories can carry out-of-range entries; one garbage
		// quality would distort every aggregate below.
		history := make([]domain.ReviewEvent, 0, len(card.History))
		for _, event := range card.History {
			if err := event.Validate(); err != nil {
				log.Warn("skipping malformed review event in insights",
					slog.String("card_id", card.CardID.String()),
					slog.String("error", err.Error()))
				continue
			}
			history = append(history, event)
		}
		snapshot.TotalReviews += len(history)

		if trend := srs.HistoryTrend(history, trendWindow); trend != srs.TrendInsufficientData {
			trends = append(trends, trend)
		}

		subject := card.Content.SubjectCategory
		acc := subjects[subject]
		if acc == nil {
			acc = &subjectAccumulator{}
			subjects[subject] = acc
		}
		for _, event := range history {
			acc.qualitySum += event.Quality
			acc.reviews++
			totalSamples++
			if now.Sub(event.Timestamp) <= consistencyWindowDays*24*time.Hour {
				reviewDays[event.Timestamp.Format("2006-01-02")] = struct{}{}
			}
		}
	}

	if snapshot.TotalCards > 0 {
		snapshot.AverageRetention = retentionSum / float64(snapshot.TotalCards)
	}
	snapshot.StrongestSubjects, snapshot.ChallengingSubjects = rankSubjects(subjects)
	snapshot.RetentionTrend = overallTrend(trends)
	snapshot.StudyConsistency = consistencyScore(totalSamples, len(reviewDays))
	snapshot.Recommendations = buildRecommendations(recommendationInputs{
		totalCards:    snapshot.TotalCards,
		overdueCards:  overdueCount,
		learningCards: learningCount,
		consistency:   snapshot.StudyConsistency,
		challenging:   snapshot.ChallengingSubjects,
	})

	return snapshot
}

// rankSubjects splits subjects into the top performers and those needing
// attention. Strong subjects need at least five reviews for significance.
func rankSubjects(
	subjects map[string]*subjectAccumulator,
) (strongest, challenging []SubjectPerformance) {
	for subject, acc := range subjects {
		if acc.reviews == 0 {
			continue
		}
		avg := float64(acc.qualitySum) / float64(acc.reviews)

		if avg < challengingQualityThreshold {
			challenging = append(challenging, SubjectPerformance{
				Subject:        subject,
				AverageQuality: avg,
				Reviews:        acc.reviews,
				Recommendation: subjectRecommendation(avg),
			})
		}
		if acc.reviews >= strongSubjectMinReviews {
			strongest = append(strongest, SubjectPerformance{
				Subject:        subject,
				AverageQuality: avg,
				Reviews:        acc.reviews,
			})
		}
	}

	sort.Slice(strongest, func(i, j int) bool {
		if strongest[i].AverageQuality != strongest[j].AverageQuality {
			return strongest[i].AverageQuality > strongest[j].AverageQuality
		}
		return strongest[i].Subject < strongest[j].Subject
	})
	if len(strongest) > maxStrongSubjects {
		strongest = strongest[:maxStrongSubjects]
	}

	sort.Slice(challenging, func(i, j int) bool {
		if challenging[i].AverageQuality != challenging[j].AverageQuality {
			return challenging[i].AverageQuality < challenging[j].AverageQuality
		}
		return challenging[i].Subject < challenging[j].Subject
	})

	return strongest, challenging
}

// subjectRecommendation templates advice for a struggling subject by how far
// its average quality has fallen.
func subjectRecommendation(avgQuality float64) string {
	switch {
	case avgQuality < 2.0:
		return "Focus on fundamental concepts and increase study frequency"
	case avgQuality < 2.5:
		return "Review basic principles and add more practice exercises"
	default:
		return "Adjust difficulty level and improve understanding methods"
	}
}

// overallTrend aggregates per-card trends: one direction wins only with a
// clear majority over the other.
func overallTrend(trends []srs.Trend) srs.Trend {
	if len(trends) == 0 {
		return srs.TrendInsufficientData
	}

	var improving, declining int
	for _, trend := range trends {
		switch trend {
		case srs.TrendImproving:
			improving++
		case srs.TrendDeclining:
			declining++
		}
	}

	switch {
	case float64(improving) > float64(declining)*trendMajorityFactor:
		return srs.TrendImproving
	case float64(declining) > float64(improving)*trendMajorityFactor:
		return srs.TrendDeclining
	default:
		return srs.TrendStable
	}
}

// consistencyScore is the share of the last 30 days with at least one review.
// With fewer than seven reviews overall there is not enough signal, so a
// neutral 0.5 is reported.
func consistencyScore(totalSamples, uniqueDays int) float64 {
	if totalSamples < minConsistencySamples {
		return 0.5
	}
	score := float64(uniqueDays) / consistencyWindowDays
	if score > 1 {
		return 1
	}
	return score
}

type recommendationInputs struct {
	totalCards    int
	overdueCards  int
	learningCards int
	consistency   float64
	challenging   []SubjectPerformance
}

// buildRecommendations assembles up to five ranked study recommendations.
func buildRecommendations(in recommendationInputs) []string {
	var recs []string

	if in.totalCards > 0 &&
		float64(in.overdueCards) > float64(in.totalCards)*overdueShareThreshold {
		recs = append(recs, fmt.Sprintf(
			"You have %d overdue cards. Consider shorter, more frequent study sessions.",
			in.overdueCards))
	}

	if in.consistency < lowConsistencyThreshold {
		recs = append(recs,
			"Improve retention by studying more consistently. Aim for daily 15-minute sessions.")
	}

	var weak []string
	for _, subject := range in.challenging {
		if subject.AverageQuality < weakSubjectQualityThreshold {
			weak = append(weak, subject.Subject)
		}
		if len(weak) == 2 {
			break
		}
	}
	if len(weak) > 0 {
		recs = append(recs, "Focus extra attention on: "+joinSubjects(weak))
	}

	if in.totalCards > 0 &&
		float64(in.learningCards) > float64(in.totalCards)*learningShareThreshold {
		recs = append(recs,
			"Many cards are still in learning stage. Be patient and focus on understanding.")
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func joinSubjects(subjects []string) string {
	out := subjects[0]
	for _, s := range subjects[1:] {
		out += ", " + s
	}
	return out
}
