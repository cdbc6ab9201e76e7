// export.go — сервис выгрузки: отбор записей совпадений по фильтрам,
// разделение на экзамены/samples, сборка zip-архива X3P и табличного отчёта.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/balliscan/matching-module/internal/domain/model"
	"github.com/balliscan/matching-module/internal/repository"
)

// ErrNoArtifacts — под фильтры выгрузки не попал ни один артефакт.
var ErrNoArtifacts = errors.New("нет артефактов для выгрузки")

// Prometheus-метрики выгрузки.
var exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mm_exports_total",
	Help: "Общее количество выгрузок по виду и результату.",
}, []string{"kind", "status"})

// Archiver собирает zip-архив из X3P-файлов и возвращает путь к нему.
type Archiver interface {
	Archive(ctx context.Context, files []*model.ArtifactFile) (path string, err error)
}

// ReportRenderer формирует табличный PDF-отчёт по записям артефактов
// и возвращает путь к файлу.
type ReportRenderer interface {
	Render(details []*model.ArtifactDetail) (path string, err error)
}

// ExportService — сервис выгрузки архивов и отчётов.
type ExportService struct {
	userRepo   repository.UserRepository
	matchRepo  repository.MatchingRepository
	examRepo   repository.ExamRepository
	sampleRepo repository.SampleRepository
	fileRepo   repository.ArtifactFileRepository
	archiver   Archiver
	renderer   ReportRenderer
	logger     *slog.Logger
}

// NewExportService создаёт сервис выгрузки.
func NewExportService(
	userRepo repository.UserRepository,
	matchRepo repository.MatchingRepository,
	examRepo repository.ExamRepository,
	sampleRepo repository.SampleRepository,
	fileRepo repository.ArtifactFileRepository,
	archiver Archiver,
	renderer ReportRenderer,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{
		userRepo:   userRepo,
		matchRepo:  matchRepo,
		examRepo:   examRepo,
		sampleRepo: sampleRepo,
		fileRepo:   fileRepo,
		archiver:   archiver,
		renderer:   renderer,
		logger:     logger.With(slog.String("component", "export_service")),
	}
}

// ExportArchive собирает zip-архив X3P-файлов по фильтрам выгрузки.
// Возвращает путь к архиву или ErrNoArtifacts, если под фильтры
// не попал ни один файл.
func (s *ExportService) ExportArchive(ctx context.Context, subject string, f repository.ExportFilter) (string, error) {
	examIDs, sampleIDs, err := s.resolveExportSet(ctx, subject, f)
	if err != nil {
		exportsTotal.WithLabelValues("x3p", "error").Inc()
		return "", err
	}

	examFiles, err := s.fileRepo.FindExamFiles(ctx, examIDs)
	if err != nil {
		exportsTotal.WithLabelValues("x3p", "error").Inc()
		return "", fmt.Errorf("выборка файлов экзаменов: %w", err)
	}
	sampleFiles, err := s.fileRepo.FindSampleFiles(ctx, sampleIDs)
	if err != nil {
		exportsTotal.WithLabelValues("x3p", "error").Inc()
		return "", fmt.Errorf("выборка файлов samples: %w", err)
	}

	files := append(examFiles, sampleFiles...)
	if len(files) == 0 {
		exportsTotal.WithLabelValues("x3p", "empty").Inc()
		return "", ErrNoArtifacts
	}

	path, err := s.archiver.Archive(ctx, files)
	if err != nil {
		exportsTotal.WithLabelValues("x3p", "error").Inc()
		return "", fmt.Errorf("сборка архива: %w", err)
	}

	exportsTotal.WithLabelValues("x3p", "ok").Inc()
	s.logger.Info("Архив X3P собран",
		slog.Int("exam_files", len(examFiles)),
		slog.Int("sample_files", len(sampleFiles)),
		slog.String("path", path),
	)
	return path, nil
}

// ExportReport формирует табличный PDF-отчёт по артефактам, попавшим
// под фильтры выгрузки. Возвращает путь к файлу или ErrNoArtifacts.
func (s *ExportService) ExportReport(ctx context.Context, subject string, f repository.ExportFilter) (string, error) {
	examIDs, sampleIDs, err := s.resolveExportSet(ctx, subject, f)
	if err != nil {
		exportsTotal.WithLabelValues("report", "error").Inc()
		return "", err
	}

	examDetails, err := s.examRepo.FindDetailsByIDs(ctx, examIDs)
	if err != nil {
		exportsTotal.WithLabelValues("report", "error").Inc()
		return "", fmt.Errorf("выборка записей экзаменов: %w", err)
	}
	sampleDetails, err := s.sampleRepo.FindDetailsByIDs(ctx, sampleIDs)
	if err != nil {
		exportsTotal.WithLabelValues("report", "error").Inc()
		return "", fmt.Errorf("выборка записей samples: %w", err)
	}

	details := append(examDetails, sampleDetails...)
	if len(details) == 0 {
		exportsTotal.WithLabelValues("report", "empty").Inc()
		return "", ErrNoArtifacts
	}

	path, err := s.renderer.Render(details)
	if err != nil {
		exportsTotal.WithLabelValues("report", "error").Inc()
		return "", fmt.Errorf("формирование отчёта: %w", err)
	}

	exportsTotal.WithLabelValues("report", "ok").Inc()
	s.logger.Info("Табличный отчёт сформирован",
		slog.Int("exams", len(examDetails)),
		slog.Int("samples", len(sampleDetails)),
		slog.String("path", path),
	)
	return path, nil
}

// resolveExportSet отбирает записи совпадений и разделяет их на id экзаменов
// и id samples. Файл экзамена включается всегда; файл sample — только если
// статус проверки записи не NO_MATCHES: отвергнутое сравнение не должно
// тянуть чужой эталон в выгрузку.
func (s *ExportService) resolveExportSet(ctx context.Context, subject string, f repository.ExportFilter) (examIDs, sampleIDs []int64, err error) {
	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrForbidden
		}
		return nil, nil, fmt.Errorf("разрешение пользователя: %w", err)
	}

	matches, err := s.matchRepo.FindForExport(ctx, user.ID, f)
	if err != nil {
		return nil, nil, fmt.Errorf("отбор записей для выгрузки: %w", err)
	}

	seenExams := make(map[int64]struct{})
	seenSamples := make(map[int64]struct{})

	for _, m := range matches {
		if _, ok := seenExams[m.ExamID]; !ok {
			seenExams[m.ExamID] = struct{}{}
			examIDs = append(examIDs, m.ExamID)
		}
		if m.MatchStatus == model.StatusNoMatches {
			continue
		}
		if _, ok := seenSamples[m.SampleID]; !ok {
			seenSamples[m.SampleID] = struct{}{}
			sampleIDs = append(sampleIDs, m.SampleID)
		}
	}

	return examIDs, sampleIDs, nil
}
