// matching.go — репозиторий matching_samples: выборка топ-совпадений
// (join с x3p_samples и metadata), обновление статуса проверки и выборка
// записей для экспорта (join с x3p_exams и metadata экзамена).
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// matchColumns — проекция joined-запроса топ-совпадений.
const matchColumns = `m.id, m.exam_id, m.sample_id, m.score,
	md.file_hash, md.occurrence_date, md.recovery_location`

// TopMatchParams — параметры выборки топ-совпадений для одного экзамена.
type TopMatchParams struct {
	// ExamID — экзамен, для которого выбираются совпадения
	ExamID int64
	// SampleIDs — видимые requester'у samples (после фильтра по agency)
	SampleIDs []int64
	// MinScore — нижний порог score (включительно)
	MinScore float64
	// Meta — предикаты по metadata sample (алиас md)
	Meta []Predicate
	// Sort — направления сортировки
	Sort SortParams
	// Limit — количество результатов
	Limit int
	// Offset — смещение
	Offset int
}

// SortParams — опциональные направления сортировки.
// nil или не asc/desc — ключ не участвует в сортировке.
type SortParams struct {
	// Score — направление по m.score (overallCompatibility)
	Score *string
	// OccurrenceDate — направление по md.occurrence_date (sort)
	OccurrenceDate *string
}

// MatchingRepository — интерфейс доступа к matching_samples.
type MatchingRepository interface {
	// FindAndCountTop выполняет joined-выборку топ-совпадений с фильтрами,
	// сортировкой и пагинацией. Возвращает: строки, общее количество, ошибка.
	FindAndCountTop(ctx context.Context, p TopMatchParams) ([]*model.MatchRow, int, error)
	// UpdateStatus атомарно обновляет статус проверки и last_seen.
	// Возвращает ErrNotFound, если записи с таким id нет.
	UpdateStatus(ctx context.Context, id int64, status string, lastSeen time.Time) error
	// FindForExport выбирает matching_samples для экспорта: только экзамены
	// указанного владельца, с предикатами по записи, экзамену и metadata.
	FindForExport(ctx context.Context, userID int64, f ExportFilter) ([]*model.ExportMatch, error)
}

// matchingRepo — реализация MatchingRepository через pgx.
type matchingRepo struct {
	db DBTX
}

// NewMatchingRepository создаёт репозиторий matching_samples.
func NewMatchingRepository(db DBTX) MatchingRepository {
	return &matchingRepo{db: db}
}

// FindAndCountTop выполняет выборку и подсчёт топ-совпадений.
func (r *matchingRepo) FindAndCountTop(ctx context.Context, p TopMatchParams) ([]*model.MatchRow, int, error) {
	where, args := buildTopMatchWhere(p)
	argNum := len(args) + 1

	orderBy := buildMatchOrderBy(p.Sort)

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM matching_samples m
		JOIN x3p_samples s ON s.id = m.sample_id
		JOIN metadata md ON md.id = s.metadata_id
		%s %s LIMIT $%d OFFSET $%d`,
		matchColumns, where, orderBy, argNum, argNum+1,
	)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выборки совпадений: %w", err)
	}
	defer rows.Close()

	var result []*model.MatchRow
	for rows.Next() {
		row := &model.MatchRow{}
		if err := rows.Scan(
			&row.ID, &row.ExamID, &row.SampleID, &row.Score,
			&row.FileHash, &row.OccurrenceDate, &row.RecoveryLocation,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования совпадения: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	// Подсчёт с теми же фильтрами, без LIMIT/OFFSET
	countWhere, countArgs := buildTopMatchWhere(p)
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM matching_samples m
		JOIN x3p_samples s ON s.id = m.sample_id
		JOIN metadata md ON md.id = s.metadata_id
		%s`, countWhere)

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта совпадений: %w", err)
	}

	return result, total, nil
}

// UpdateStatus атомарно обновляет статус проверки.
// Read-modify-write не используется: одиночный UPDATE, last-write-wins
// при конкурентных изменениях одной записи.
func (r *matchingRepo) UpdateStatus(ctx context.Context, id int64, status string, lastSeen time.Time) error {
	query := `
		UPDATE matching_samples
		SET match_status = $2, last_seen = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, lastSeen)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindForExport выбирает записи для экспорта. Владение проверяется join'ом
// по x3p_exams.user_id — чужие экзамены в выборку не попадают.
func (r *matchingRepo) FindForExport(ctx context.Context, userID int64, f ExportFilter) ([]*model.ExportMatch, error) {
	conditions := []string{"e.user_id = $1"}
	args := []any{userID}

	for _, preds := range [][]Predicate{
		ExportMatchingPredicates(f),
		ExportExamPredicates(f),
		ExportMetadataPredicates(f),
	} {
		cs, as := renderConditions(preds, len(args)+1)
		conditions = append(conditions, cs...)
		args = append(args, as...)
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.exam_id, m.sample_id, m.match_status
		FROM matching_samples m
		JOIN x3p_exams e ON e.id = m.exam_id
		JOIN metadata md ON md.id = e.metadata_id
		WHERE %s
		ORDER BY m.id`, strings.Join(conditions, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей для экспорта: %w", err)
	}
	defer rows.Close()

	var result []*model.ExportMatch
	for rows.Next() {
		em := &model.ExportMatch{}
		if err := rows.Scan(&em.ID, &em.ExamID, &em.SampleID, &em.MatchStatus); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи экспорта: %w", err)
		}
		result = append(result, em)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}

// buildTopMatchWhere строит WHERE выборки топ-совпадений: фиксированные
// условия (экзамен, порог score, видимые samples) плюс предикаты metadata.
func buildTopMatchWhere(p TopMatchParams) (whereClause string, args []any) {
	conditions := []string{"m.exam_id = $1", "m.score >= $2", "m.sample_id = ANY($3)"}
	args = []any{p.ExamID, p.MinScore, p.SampleIDs}

	cs, as := renderConditions(p.Meta, len(args)+1)
	conditions = append(conditions, cs...)
	args = append(args, as...)

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// buildMatchOrderBy строит ORDER BY из направлений сортировки.
// Направления проходят через whitelist (только asc/desc); последним ключом
// всегда идёт m.id ASC — детерминированный tie-break, гарантирующий
// стабильную пагинацию при равных score.
func buildMatchOrderBy(s SortParams) string {
	var keys []string

	if dir := normalizeDirection(s.Score); dir != "" {
		keys = append(keys, "m.score "+dir)
	}
	if dir := normalizeDirection(s.OccurrenceDate); dir != "" {
		keys = append(keys, "md.occurrence_date "+dir)
	}
	keys = append(keys, "m.id ASC")

	return "ORDER BY " + strings.Join(keys, ", ")
}

// normalizeDirection приводит направление сортировки к whitelist-значению.
// Всё, кроме asc/desc (без учёта регистра), отбрасывается.
func normalizeDirection(dir *string) string {
	if dir == nil {
		return ""
	}
	switch strings.ToLower(*dir) {
	case "asc":
		return "ASC"
	case "desc":
		return "DESC"
	default:
		return ""
	}
}
