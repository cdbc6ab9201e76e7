package export

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// TestTableRenderer_Render проверяет формирование валидного PDF-файла.
func TestTableRenderer_Render(t *testing.T) {
	renderer := NewTableRenderer(t.TempDir(), slog.Default())

	crime := "Homicide"
	region := "North"
	occurred := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	details := []*model.ArtifactDetail{
		{
			ID:           100,
			Origin:       model.OriginExam,
			ArtefactType: "BULLET",
			Metadata: model.Metadata{
				FileHash:       "aaa111",
				Name:           "exam-artifact",
				Crime:          &crime,
				Region:         &region,
				OccurrenceDate: &occurred,
			},
		},
		{
			ID:     200,
			Origin: model.OriginSample,
			Metadata: model.Metadata{
				FileHash: "bbb222",
				Name:     "sample-artifact",
			},
		},
	}

	path, err := renderer.Render(details)
	if err != nil {
		t.Fatalf("Render ошибка: %v", err)
	}
	if !strings.HasSuffix(path, ".pdf") {
		t.Errorf("путь отчёта %q не оканчивается на .pdf", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Не удалось прочитать отчёт: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("пустой PDF-файл")
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("файл не начинается с %%PDF: %q", data[:8])
	}
}

// TestTableRenderer_ManyRows проверяет формирование многостраничного отчёта.
func TestTableRenderer_ManyRows(t *testing.T) {
	renderer := NewTableRenderer(t.TempDir(), slog.Default())

	var details []*model.ArtifactDetail
	for i := int64(1); i <= 120; i++ {
		details = append(details, &model.ArtifactDetail{
			ID:     i,
			Origin: model.OriginSample,
			Metadata: model.Metadata{
				FileHash: "hash",
				Name:     "artifact",
			},
		})
	}

	path, err := renderer.Render(details)
	if err != nil {
		t.Fatalf("Render ошибка: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Не удалось прочитать отчёт: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("пустой PDF-файл")
	}
}

// TestReportValueFormatting проверяет форматирование опциональных полей.
func TestReportValueFormatting(t *testing.T) {
	if got := strVal(nil); got != "" {
		t.Errorf("strVal(nil) = %q, ожидалась пустая строка", got)
	}
	s := "value"
	if got := strVal(&s); got != "value" {
		t.Errorf("strVal = %q, ожидалось value", got)
	}

	if got := dateVal(nil); got != "" {
		t.Errorf("dateVal(nil) = %q, ожидалась пустая строка", got)
	}
	d := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	if got := dateVal(&d); got != "2025-03-14" {
		t.Errorf("dateVal = %q, ожидалось 2025-03-14", got)
	}
}
