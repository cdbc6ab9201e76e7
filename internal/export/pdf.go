// pdf.go — табличный PDF-отчёт по артефактам выгрузки (go-pdf/fpdf).
package export

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// reportColumn — один столбец табличного отчёта.
type reportColumn struct {
	title string
	width float64
	value func(d *model.ArtifactDetail) string
}

// reportColumns — фиксированный набор столбцов отчёта.
// Порядок соответствует порядку вывода в таблице.
var reportColumns = []reportColumn{
	{"Origin", 18, func(d *model.ArtifactDetail) string { return d.Origin }},
	{"ID", 14, func(d *model.ArtifactDetail) string { return fmt.Sprintf("%d", d.ID) }},
	{"Type", 24, func(d *model.ArtifactDetail) string { return d.ArtefactType }},
	{"File hash", 36, func(d *model.ArtifactDetail) string { return d.Metadata.FileHash }},
	{"Name", 30, func(d *model.ArtifactDetail) string { return d.Metadata.Name }},
	{"Description", 36, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.Description) }},
	{"Crime", 24, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.Crime) }},
	{"Calibre", 18, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.Calibre) }},
	{"Recovery location", 30, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.RecoveryLocation) }},
	{"Region", 22, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.Region) }},
	{"Occurrence date", 26, func(d *model.ArtifactDetail) string { return dateVal(d.Metadata.OccurrenceDate) }},
	{"Lands/grooves", 22, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.NumberOfLandsAndGrooves) }},
	{"Direction", 20, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.DirectionOfLandsAndGrooves) }},
	{"Rifling", 22, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.RiflingManufacturing) }},
	{"Material", 22, func(d *model.ArtifactDetail) string { return strVal(d.Metadata.ManufacturingMaterial) }},
}

// TableRenderer формирует табличные PDF-отчёты в подкаталоге рабочего
// каталога. Как и у Archiver, каждая выгрузка получает собственный
// staging-каталог (uuid).
type TableRenderer struct {
	baseDir string
	logger  *slog.Logger
}

// NewTableRenderer создаёт renderer с указанным рабочим каталогом.
func NewTableRenderer(baseDir string, logger *slog.Logger) *TableRenderer {
	return &TableRenderer{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "report_renderer")),
	}
}

// Render формирует PDF-таблицу по записям артефактов и возвращает путь
// к файлу. Заголовок таблицы повторяется на каждой странице.
func (r *TableRenderer) Render(details []*model.ArtifactDetail) (string, error) {
	stagingDir := filepath.Join(r.baseDir, uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("создание staging-каталога: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A3", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, "Matched artifacts report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	r.writeHeader(pdf)

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range details {
		// Перед разрывом страницы повторяем заголовок таблицы
		if pdf.GetY() > 270 {
			pdf.AddPage()
			r.writeHeader(pdf)
			pdf.SetFont("Helvetica", "", 7)
		}
		for _, col := range reportColumns {
			pdf.CellFormat(col.width, 6, col.value(d), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	reportPath := filepath.Join(stagingDir, reportName())
	if err := pdf.OutputFileAndClose(reportPath); err != nil {
		// Не оставляем staging-каталог после неудачной выгрузки
		if rmErr := os.RemoveAll(stagingDir); rmErr != nil {
			r.logger.Warn("Staging-каталог не удалён",
				slog.String("dir", stagingDir),
				slog.String("error", rmErr.Error()),
			)
		}
		return "", fmt.Errorf("запись PDF-отчёта: %w", err)
	}

	r.logger.Debug("Отчёт сформирован",
		slog.String("path", reportPath),
		slog.Int("rows", len(details)),
	)
	return reportPath, nil
}

// writeHeader выводит строку заголовков таблицы.
func (r *TableRenderer) writeHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

// reportName формирует имя отчёта: unix-время + md5 от случайных байт.
func reportName() string {
	seed := make([]byte, 16)
	_, _ = rand.Read(seed)
	return fmt.Sprintf("%d_%x.pdf", time.Now().Unix(), md5.Sum(seed))
}

// strVal возвращает значение опционального поля или пустую строку.
func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dateVal форматирует опциональную дату в YYYY-MM-DD.
func dateVal(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
