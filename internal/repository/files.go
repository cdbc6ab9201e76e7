// files.go — репозиторий x3p_exam_files / x3p_sample_files: бинарные X3P,
// привязанные к экзаменам и samples. Read-only: используется только при
// сборке zip-выгрузки.
package repository

import (
	"context"
	"fmt"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// ArtifactFileRepository — интерфейс доступа к хранимым X3P-файлам.
type ArtifactFileRepository interface {
	// FindExamFiles возвращает файлы указанных экзаменов.
	FindExamFiles(ctx context.Context, examIDs []int64) ([]*model.ArtifactFile, error)
	// FindSampleFiles возвращает файлы указанных samples.
	FindSampleFiles(ctx context.Context, sampleIDs []int64) ([]*model.ArtifactFile, error)
}

// artifactFileRepo — реализация ArtifactFileRepository через pgx.
type artifactFileRepo struct {
	db DBTX
}

// NewArtifactFileRepository создаёт репозиторий X3P-файлов.
func NewArtifactFileRepository(db DBTX) ArtifactFileRepository {
	return &artifactFileRepo{db: db}
}

// FindExamFiles возвращает файлы экзаменов.
func (r *artifactFileRepo) FindExamFiles(ctx context.Context, examIDs []int64) ([]*model.ArtifactFile, error) {
	return r.find(ctx, "x3p_exam_files", "x3p_exam_id", examIDs)
}

// FindSampleFiles возвращает файлы samples.
func (r *artifactFileRepo) FindSampleFiles(ctx context.Context, sampleIDs []int64) ([]*model.ArtifactFile, error) {
	return r.find(ctx, "x3p_sample_files", "x3p_sample_id", sampleIDs)
}

// find выбирает файлы из таблицы по набору id владельцев.
// table и ownerColumn задаются кодом модуля, не пользовательским вводом.
func (r *artifactFileRepo) find(ctx context.Context, table, ownerColumn string, ownerIDs []int64) ([]*model.ArtifactFile, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, %s, file_hash, file_path
		FROM %s
		WHERE %s = ANY($1)
		ORDER BY id`, ownerColumn, table, ownerColumn)

	rows, err := r.db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки файлов из %s: %w", table, err)
	}
	defer rows.Close()

	var result []*model.ArtifactFile
	for rows.Next() {
		f := &model.ArtifactFile{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.FileHash, &f.FilePath); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла из %s: %w", table, err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}
