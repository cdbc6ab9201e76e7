package export

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// writeSourceFile создаёт исходный X3P-файл для теста.
func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Не удалось создать исходный файл: %v", err)
	}
	return path
}

// TestArchiver_Archive проверяет сборку архива и имена записей <fileHash>.x3p.
func TestArchiver_Archive(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	files := []*model.ArtifactFile{
		{FileHash: "aaa111", FilePath: writeSourceFile(t, srcDir, "e1.x3p", "exam-data")},
		{FileHash: "bbb222", FilePath: writeSourceFile(t, srcDir, "s1.x3p", "sample-data")},
	}

	archiver := NewArchiver(outDir, slog.Default())
	path, err := archiver.Archive(context.Background(), files)
	if err != nil {
		t.Fatalf("Archive ошибка: %v", err)
	}

	if !strings.HasSuffix(path, ".zip") {
		t.Errorf("путь архива %q не оканчивается на .zip", path)
	}
	if !strings.HasPrefix(path, outDir) {
		t.Errorf("архив %q вне рабочего каталога %q", path, outDir)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Не удалось открыть архив: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != 2 {
		t.Fatalf("в архиве %d записей, ожидалось 2", len(zr.File))
	}

	want := map[string]string{
		"aaa111.x3p": "exam-data",
		"bbb222.x3p": "sample-data",
	}
	for _, f := range zr.File {
		content, ok := want[f.Name]
		if !ok {
			t.Errorf("неожиданная запись %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Не удалось открыть запись %q: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Не удалось прочитать запись %q: %v", f.Name, err)
		}
		if string(data) != content {
			t.Errorf("запись %q = %q, ожидалось %q", f.Name, data, content)
		}
	}
}

// TestArchiver_MissingSource проверяет ошибку при отсутствующем исходном
// файле и удаление staging-каталога после неудачной выгрузки.
func TestArchiver_MissingSource(t *testing.T) {
	outDir := t.TempDir()
	archiver := NewArchiver(outDir, slog.Default())

	_, err := archiver.Archive(context.Background(), []*model.ArtifactFile{
		{FileHash: "ghost", FilePath: "/nonexistent/ghost.x3p"},
	})
	if err == nil {
		t.Fatal("ожидалась ошибка для отсутствующего исходного файла")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("Не удалось прочитать рабочий каталог: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging-каталог не удалён после ошибки: %v", entries)
	}
}

// TestArchiver_CancelledContext проверяет прерывание выгрузки и уборку
// staging-каталога при отменённом контексте.
func TestArchiver_CancelledContext(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	archiver := NewArchiver(outDir, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := archiver.Archive(ctx, []*model.ArtifactFile{
		{FileHash: "x", FilePath: writeSourceFile(t, srcDir, "x.x3p", "data")},
	})
	if err == nil {
		t.Fatal("ожидалась ошибка для отменённого контекста")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("Не удалось прочитать рабочий каталог: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging-каталог не удалён после отмены: %v", entries)
	}
}

// TestArchiver_UniquePaths проверяет, что параллельные выгрузки
// получают разные staging-каталоги.
func TestArchiver_UniquePaths(t *testing.T) {
	srcDir := t.TempDir()
	archiver := NewArchiver(t.TempDir(), slog.Default())

	files := []*model.ArtifactFile{
		{FileHash: "x", FilePath: writeSourceFile(t, srcDir, "x.x3p", "data")},
	}

	p1, err := archiver.Archive(context.Background(), files)
	if err != nil {
		t.Fatalf("Archive ошибка: %v", err)
	}
	p2, err := archiver.Archive(context.Background(), files)
	if err != nil {
		t.Fatalf("Archive ошибка: %v", err)
	}

	if filepath.Dir(p1) == filepath.Dir(p2) {
		t.Errorf("staging-каталоги совпадают: %q", filepath.Dir(p1))
	}
}
