// matching.go — сервис топ-совпадений: проверка владения экзаменом,
// видимость samples по ведомству, выборка ранжированных совпадений
// и смена статуса проверки.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/balliscan/matching-module/internal/domain/model"
	"github.com/balliscan/matching-module/internal/pagination"
	"github.com/balliscan/matching-module/internal/repository"
)

// Ошибки сервисного слоя.
var (
	// ErrForbidden — экзамен не существует или принадлежит другому пользователю.
	// Случаи не различаются, чтобы не раскрывать существование чужих экзаменов.
	ErrForbidden = errors.New("доступ к экзамену запрещён")
	// ErrNotFound — запись совпадения не найдена.
	ErrNotFound = errors.New("запись совпадения не найдена")
)

// Нижний порог score: совпадения слабее в выдачу не попадают.
const minMatchScore = 0.01

// Prometheus-метрики сервиса совпадений.
var (
	matchQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_match_queries_total",
		Help: "Общее количество запросов топ-совпадений.",
	})
	matchQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_match_query_duration_seconds",
		Help:    "Длительность запросов топ-совпадений.",
		Buckets: prometheus.DefBuckets,
	})
	statusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_status_changes_total",
		Help: "Общее количество смен статуса проверки.",
	}, []string{"status"})
)

// TopMatchingQuery — параметры запроса топ-совпадений.
type TopMatchingQuery struct {
	// ExamID — экзамен, для которого запрашиваются совпадения
	ExamID int64
	// PageNo — номер страницы (с нуля)
	PageNo int
	// PageSize — размер страницы
	PageSize int
	// Agency — фильтр видимости samples по ведомству владельца (nil — все)
	Agency *string
	// Meta — фильтры по metadata sample
	Meta repository.MetaFilter
	// Sort — направления сортировки
	Sort repository.SortParams
}

// MatchingService — сервис топ-совпадений и статусов проверки.
type MatchingService struct {
	userRepo   repository.UserRepository
	examRepo   repository.ExamRepository
	sampleRepo repository.SampleRepository
	matchRepo  repository.MatchingRepository
	cache      *CacheService
	logger     *slog.Logger
}

// NewMatchingService создаёт сервис совпадений.
func NewMatchingService(
	userRepo repository.UserRepository,
	examRepo repository.ExamRepository,
	sampleRepo repository.SampleRepository,
	matchRepo repository.MatchingRepository,
	cache *CacheService,
	logger *slog.Logger,
) *MatchingService {
	return &MatchingService{
		userRepo:   userRepo,
		examRepo:   examRepo,
		sampleRepo: sampleRepo,
		matchRepo:  matchRepo,
		cache:      cache,
		logger:     logger.With(slog.String("component", "matching_service")),
	}
}

// ListTopMatching возвращает страницу ранжированных совпадений экзамена.
//
// Порядок проверок:
//  1. subject из JWT разрешается во внутреннего пользователя;
//  2. экзамен должен существовать и принадлежать пользователю, иначе ErrForbidden;
//  3. выбираются видимые samples (фильтр по ведомству); пустой набор —
//     валидный пустой конверт, запрос к matching_samples не выполняется.
func (s *MatchingService) ListTopMatching(ctx context.Context, subject string, q TopMatchingQuery) (*pagination.Page[*model.MatchRow], error) {
	start := time.Now()
	matchQueriesTotal.Inc()

	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("разрешение пользователя: %w", err)
	}

	exam, err := s.getExam(ctx, q.ExamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("получение экзамена: %w", err)
	}
	if exam.UserID != user.ID {
		return nil, ErrForbidden
	}

	sampleIDs, err := s.sampleRepo.FindVisibleIDs(ctx, q.Agency)
	if err != nil {
		return nil, fmt.Errorf("выборка видимых samples: %w", err)
	}
	if len(sampleIDs) == 0 {
		s.logger.Debug("Нет видимых samples, возвращается пустая страница",
			slog.Int64("exam_id", q.ExamID),
		)
		return pagination.Empty[*model.MatchRow](), nil
	}

	limit, offset := pagination.Limits(q.PageNo, q.PageSize)

	rows, total, err := s.matchRepo.FindAndCountTop(ctx, repository.TopMatchParams{
		ExamID:    q.ExamID,
		SampleIDs: sampleIDs,
		MinScore:  minMatchScore,
		Meta:      repository.MetadataPredicates(q.Meta),
		Sort:      q.Sort,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("выборка топ-совпадений: %w", err)
	}

	duration := time.Since(start)
	matchQueryDuration.Observe(duration.Seconds())

	s.logger.Debug("Топ-совпадения выбраны",
		slog.Int64("exam_id", q.ExamID),
		slog.Int("total", total),
		slog.Int("returned", len(rows)),
		slog.Duration("duration", duration),
	)

	pageNo := q.PageNo
	if pageNo < 0 {
		pageNo = 0
	}
	return pagination.New(rows, pageNo, limit, total), nil
}

// ChangeStatus меняет статус проверки записи совпадения и фиксирует
// время изменения. Возвращает ErrNotFound, если записи нет.
func (s *MatchingService) ChangeStatus(ctx context.Context, activityID int64, status string) error {
	err := s.matchRepo.UpdateStatus(ctx, activityID, status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("смена статуса: %w", err)
	}

	statusChangesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Статус проверки изменён",
		slog.Int64("activity_id", activityID),
		slog.String("status", status),
	)
	return nil
}

// getExam возвращает экзамен из кэша либо из БД с последующим кэшированием.
func (s *MatchingService) getExam(ctx context.Context, examID int64) (*model.Exam, error) {
	if exam, ok := s.cache.Get(examID); ok {
		return exam, nil
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(examID, exam)
	return exam, nil
}
