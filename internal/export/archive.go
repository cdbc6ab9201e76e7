// Пакет export — сборка выгрузок на диске: zip-архивы X3P-файлов
// и табличные PDF-отчёты по артефактам.
package export

import (
	"archive/zip"
	"context"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// Archiver собирает zip-архивы X3P-файлов в подкаталоге рабочего каталога.
// Каждая выгрузка получает собственный staging-каталог (uuid), чтобы
// параллельные выгрузки не пересекались.
type Archiver struct {
	baseDir string
	logger  *slog.Logger
}

// NewArchiver создаёт archiver с указанным рабочим каталогом.
func NewArchiver(baseDir string, logger *slog.Logger) *Archiver {
	return &Archiver{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// Archive собирает zip-архив из файлов и возвращает путь к нему.
// Имя записи в архиве — <fileHash>.x3p; содержимое читается с диска
// по FilePath. Отсутствующий на диске файл — ошибка всей выгрузки.
// При ошибке staging-каталог удаляется, чтобы не копить мусор
// в рабочем каталоге.
func (a *Archiver) Archive(ctx context.Context, files []*model.ArtifactFile) (string, error) {
	stagingDir := filepath.Join(a.baseDir, uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("создание staging-каталога: %w", err)
	}

	archivePath, err := a.buildArchive(ctx, stagingDir, files)
	if err != nil {
		if rmErr := os.RemoveAll(stagingDir); rmErr != nil {
			a.logger.Warn("Staging-каталог не удалён",
				slog.String("dir", stagingDir),
				slog.String("error", rmErr.Error()),
			)
		}
		return "", err
	}

	a.logger.Debug("Архив собран",
		slog.String("path", archivePath),
		slog.Int("files", len(files)),
	)
	return archivePath, nil
}

// buildArchive пишет zip-архив в staging-каталог.
func (a *Archiver) buildArchive(ctx context.Context, stagingDir string, files []*model.ArtifactFile) (string, error) {
	archivePath := filepath.Join(stagingDir, archiveName())

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("создание файла архива: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for _, f := range files {
		select {
		case <-ctx.Done():
			zw.Close()
			return "", ctx.Err()
		default:
		}

		if err := a.addEntry(zw, f); err != nil {
			zw.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("завершение архива: %w", err)
	}

	return archivePath, nil
}

// addEntry добавляет один X3P-файл в архив под именем <fileHash>.x3p.
func (a *Archiver) addEntry(zw *zip.Writer, f *model.ArtifactFile) error {
	src, err := os.Open(f.FilePath)
	if err != nil {
		return fmt.Errorf("открытие файла %s: %w", f.FilePath, err)
	}
	defer src.Close()

	entry, err := zw.Create(f.FileHash + ".x3p")
	if err != nil {
		return fmt.Errorf("создание записи архива %s: %w", f.FileHash, err)
	}

	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("запись файла %s в архив: %w", f.FileHash, err)
	}
	return nil
}

// archiveName формирует имя архива: unix-время + md5 от случайных байт.
// Случайный суффикс исключает коллизии при одновременных выгрузках
// в одну секунду.
func archiveName() string {
	seed := make([]byte, 16)
	_, _ = rand.Read(seed)
	return fmt.Sprintf("%d_%x.zip", time.Now().Unix(), md5.Sum(seed))
}
