// matching.go — обработчики топ-совпадений: выборка ранжированной
// страницы и смена статуса проверки.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/balliscan/matching-module/internal/api/errors"
	"github.com/balliscan/matching-module/internal/api/middleware"
	"github.com/balliscan/matching-module/internal/repository"
	"github.com/balliscan/matching-module/internal/service"
)

// GetTopMatching — GET /api/v1/matching/top.
// Возвращает страницу ранжированных совпадений экзамена requester'а.
//
// Query-параметры:
//   - examId (обязательный) — экзамен
//   - pageNo, pageSize — пагинация (с нуля; по умолчанию 0/10)
//   - overallCompatibility — направление сортировки по score (asc/desc)
//   - sort — направление сортировки по дате происшествия (asc/desc)
//   - startOccurrenceDate, endOccurrenceDate — границы дат (YYYY-MM-DD, включительно)
//   - region — регион metadata (точное совпадение)
//   - country — страна (суффикс recovery_location, без учёта регистра)
//   - lawEnforcementAgency — фильтр видимости samples по ведомству
func (h *APIHandler) GetTopMatching(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Отсутствует аутентификация")
		return
	}

	q := r.URL.Query()

	examID, err := parseInt64Param(q, "examId")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	pageNo, err := parseIntDefault(q, "pageNo", 0)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	pageSize, err := parseIntDefault(q, "pageSize", 0)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	startDate, err := parseDateParam(q, "startOccurrenceDate")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	endDate, err := parseDateParam(q, "endOccurrenceDate")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	query := service.TopMatchingQuery{
		ExamID:   examID,
		PageNo:   pageNo,
		PageSize: pageSize,
		Agency:   optString(q, "lawEnforcementAgency"),
		Meta: repository.MetaFilter{
			Region:              optString(q, "region"),
			Country:             optString(q, "country"),
			StartOccurrenceDate: startDate,
			EndOccurrenceDate:   endDate,
		},
		Sort: repository.SortParams{
			Score:          optString(q, "overallCompatibility"),
			OccurrenceDate: optString(q, "sort"),
		},
	}

	page, err := h.matching.ListTopMatching(r.Context(), subject, query)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			apierrors.Forbidden(w, "Экзамен недоступен")
			return
		}
		h.logger.Error("Ошибка выборки топ-совпадений",
			slog.Int64("exam_id", examID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка выборки совпадений")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// statusAck — подтверждение смены статуса проверки.
type statusAck struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ChangeStatus — PUT /api/v1/matching/status.
// Меняет статус проверки записи совпадения.
//
// Query-параметры:
//   - activityId (обязательный) — id записи matching_samples
//   - matchStatus (обязательный) — новый статус
func (h *APIHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Отсутствует аутентификация")
		return
	}

	q := r.URL.Query()

	activityID, err := parseInt64Param(q, "activityId")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	status := q.Get("matchStatus")
	if status == "" {
		apierrors.ValidationError(w, "параметр matchStatus обязателен")
		return
	}

	if err := h.matching.ChangeStatus(r.Context(), activityID, status); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись совпадения не найдена")
			return
		}
		h.logger.Error("Ошибка смены статуса",
			slog.Int64("activity_id", activityID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка смены статуса")
		return
	}

	writeJSON(w, http.StatusOK, statusAck{
		Status:  http.StatusOK,
		Message: "Change status successfully",
	})
}
