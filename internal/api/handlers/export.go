// export.go — обработчики выгрузки: zip-архив X3P и табличный PDF-отчёт.
// Файл выгрузки собирается на диске в staging-каталоге, отдаётся клиенту
// как attachment и удаляется вместе с каталогом после отправки.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	apierrors "github.com/balliscan/matching-module/internal/api/errors"
	"github.com/balliscan/matching-module/internal/api/middleware"
	"github.com/balliscan/matching-module/internal/repository"
	"github.com/balliscan/matching-module/internal/service"
)

// ExportX3P — GET /api/v1/matching/export/x3p.
// Отдаёт zip-архив X3P-файлов, попавших под фильтры выгрузки.
//
// Query-параметры (все опциональны, списки — повторами или через запятую):
//   - activityIds — id записей matching_samples
//   - matchStatus — статусы проверки
//   - type — типы артефактов экзаменов
//   - crime — виды преступлений
//   - calibre — калибры
func (h *APIHandler) ExportX3P(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Отсутствует аутентификация")
		return
	}

	filter, err := parseExportFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	path, err := h.export.ExportArchive(r.Context(), subject, filter)
	if err != nil {
		h.writeExportError(w, "x3p", err)
		return
	}

	h.serveExportFile(w, path, "application/zip")
}

// ExportReport — GET /api/v1/matching/export/report.
// Отдаёт табличный PDF-отчёт по артефактам, попавшим под фильтры выгрузки.
// Параметры совпадают с ExportX3P.
func (h *APIHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Отсутствует аутентификация")
		return
	}

	filter, err := parseExportFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	path, err := h.export.ExportReport(r.Context(), subject, filter)
	if err != nil {
		h.writeExportError(w, "report", err)
		return
	}

	h.serveExportFile(w, path, "application/pdf")
}

// parseExportFilter разбирает фильтры выгрузки из query-параметров.
func parseExportFilter(r *http.Request) (repository.ExportFilter, error) {
	q := r.URL.Query()

	activityIDs, err := parseInt64ListParam(q, "activityIds")
	if err != nil {
		return repository.ExportFilter{}, err
	}

	return repository.ExportFilter{
		ActivityIDs:   activityIDs,
		MatchStatuses: parseListParam(q, "matchStatus"),
		ArtefactTypes: parseListParam(q, "type"),
		Crimes:        parseListParam(q, "crime"),
		Calibres:      parseListParam(q, "calibre"),
	}, nil
}

// writeExportError отображает ошибки сервиса выгрузки на HTTP-ответы.
func (h *APIHandler) writeExportError(w http.ResponseWriter, kind string, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Выгрузка недоступна")
	case errors.Is(err, service.ErrNoArtifacts):
		apierrors.InternalError(w, "Нет артефактов для выгрузки")
	default:
		h.logger.Error("Ошибка выгрузки",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка выгрузки")
	}
}

// serveExportFile отдаёт файл выгрузки как attachment и удаляет его
// staging-каталог после отправки.
func (h *APIHandler) serveExportFile(w http.ResponseWriter, path, contentType string) {
	defer func() {
		if err := os.RemoveAll(filepath.Dir(path)); err != nil {
			h.logger.Warn("Не удалось удалить staging-каталог",
				slog.String("path", filepath.Dir(path)),
				slog.String("error", err.Error()),
			)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		h.logger.Error("Не удалось открыть файл выгрузки",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения файла выгрузки")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		// Ответ уже начат — остаётся только залогировать
		h.logger.Warn("Ошибка отправки файла выгрузки",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
