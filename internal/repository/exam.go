// exam.go — репозиторий x3p_exams: проверка владения и развёрнутые
// записи для табличного отчёта.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// detailColumns — столбцы metadata для развёрнутых записей отчёта.
const detailColumns = `md.file_hash, md.name, md.description, md.crime, md.calibre,
	md.recovery_location, md.region, md.occurrence_date,
	md.number_of_lands_and_grooves, md.direction_of_lands_and_grooves,
	md.rifling_manufacturing, md.manufacturing_material`

// ExamRepository — интерфейс доступа к x3p_exams.
type ExamRepository interface {
	// GetByID возвращает экзамен по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
	// FindDetailsByIDs возвращает развёрнутые записи экзаменов (join metadata)
	// для табличного отчёта, в порядке возрастания id.
	FindDetailsByIDs(ctx context.Context, ids []int64) ([]*model.ArtifactDetail, error)
}

// examRepo — реализация ExamRepository через pgx.
type examRepo struct {
	db DBTX
}

// NewExamRepository создаёт репозиторий экзаменов.
func NewExamRepository(db DBTX) ExamRepository {
	return &examRepo{db: db}
}

// GetByID возвращает экзамен по id или ErrNotFound.
func (r *examRepo) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	query := `
		SELECT id, user_id, artefact_type, metadata_id
		FROM x3p_exams
		WHERE id = $1`

	e := &model.Exam{}
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.UserID, &e.ArtefactType, &e.MetadataID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения экзамена: %w", err)
	}
	return e, nil
}

// FindDetailsByIDs возвращает развёрнутые записи экзаменов.
func (r *examRepo) FindDetailsByIDs(ctx context.Context, ids []int64) ([]*model.ArtifactDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.artefact_type, %s
		FROM x3p_exams e
		JOIN metadata md ON md.id = e.metadata_id
		WHERE e.id = ANY($1)
		ORDER BY e.id`, detailColumns)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей экзаменов: %w", err)
	}
	defer rows.Close()

	var result []*model.ArtifactDetail
	for rows.Next() {
		d := &model.ArtifactDetail{Origin: model.OriginExam}
		if err := rows.Scan(
			&d.ID, &d.ArtefactType,
			&d.Metadata.FileHash, &d.Metadata.Name, &d.Metadata.Description,
			&d.Metadata.Crime, &d.Metadata.Calibre, &d.Metadata.RecoveryLocation,
			&d.Metadata.Region, &d.Metadata.OccurrenceDate,
			&d.Metadata.NumberOfLandsAndGrooves, &d.Metadata.DirectionOfLandsAndGrooves,
			&d.Metadata.RiflingManufacturing, &d.Metadata.ManufacturingMaterial,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи экзамена: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}
