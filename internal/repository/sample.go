// sample.go — репозиторий x3p_samples: видимые samples (фильтр по ведомству
// владельца) и развёрнутые записи для табличного отчёта.
package repository

import (
	"context"
	"fmt"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// SampleRepository — интерфейс доступа к x3p_samples.
type SampleRepository interface {
	// FindVisibleIDs возвращает id samples, видимых при фильтре по agency
	// владельца. agency = nil — фильтр не применяется, видны все.
	// Пустой результат — валидный ответ, а не ошибка: вызывающая сторона
	// отличает "samples не видны" от сбоя запроса по возвращаемой ошибке.
	FindVisibleIDs(ctx context.Context, agency *string) ([]int64, error)
	// FindDetailsByIDs возвращает развёрнутые записи samples (join metadata)
	// для табличного отчёта, в порядке возрастания id.
	FindDetailsByIDs(ctx context.Context, ids []int64) ([]*model.ArtifactDetail, error)
}

// sampleRepo — реализация SampleRepository через pgx.
type sampleRepo struct {
	db DBTX
}

// NewSampleRepository создаёт репозиторий samples.
func NewSampleRepository(db DBTX) SampleRepository {
	return &sampleRepo{db: db}
}

// FindVisibleIDs возвращает id samples с учётом фильтра по agency владельца.
func (r *sampleRepo) FindVisibleIDs(ctx context.Context, agency *string) ([]int64, error) {
	query := `
		SELECT s.id
		FROM x3p_samples s
		JOIN users u ON u.id = s.user_id`
	var args []any

	if agency != nil && *agency != "" {
		query += ` WHERE u.agency = $1`
		args = append(args, *agency)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки видимых samples: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования id sample: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return ids, nil
}

// FindDetailsByIDs возвращает развёрнутые записи samples.
func (r *sampleRepo) FindDetailsByIDs(ctx context.Context, ids []int64) ([]*model.ArtifactDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT s.id, %s
		FROM x3p_samples s
		JOIN metadata md ON md.id = s.metadata_id
		WHERE s.id = ANY($1)
		ORDER BY s.id`, detailColumns)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей samples: %w", err)
	}
	defer rows.Close()

	var result []*model.ArtifactDetail
	for rows.Next() {
		d := &model.ArtifactDetail{Origin: model.OriginSample}
		if err := rows.Scan(
			&d.ID,
			&d.Metadata.FileHash, &d.Metadata.Name, &d.Metadata.Description,
			&d.Metadata.Crime, &d.Metadata.Calibre, &d.Metadata.RecoveryLocation,
			&d.Metadata.Region, &d.Metadata.OccurrenceDate,
			&d.Metadata.NumberOfLandsAndGrooves, &d.Metadata.DirectionOfLandsAndGrooves,
			&d.Metadata.RiflingManufacturing, &d.Metadata.ManufacturingMaterial,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи sample: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}
