// Пакет model — доменные модели Matching Module.
// Таблицы x3p_exams / x3p_samples / metadata / matching_samples заполняются
// внешними модулями (загрузка артефактов, scoring pipeline) — MM читает их
// и обновляет только статус проверки у matching_samples.
package model

import "time"

// Статусы проверки matching_samples.
// Выставляются экспертом через changeStatus; NO_MATCHES — выделенный статус
// "не совпадение": файл сравнённого sample в экспорт не попадает.
const (
	StatusUnreviewed   = "UNREVIEWED"
	StatusMatches      = "MATCHES"
	StatusNoMatches    = "NO_MATCHES"
	StatusInconclusive = "INCONCLUSIVE"
)

// User — владелец экзаменов и samples.
// Subject — sub из JWT (идентификатор в IdP), Agency — ведомство,
// по которому фильтруется видимость samples.
type User struct {
	ID       int64
	Subject  string
	Username string
	Email    *string
	Agency   string
}

// Exam — артефакт, поданный на исследование (x3p_exams).
// MM читает его только для проверки владения и фильтрации по типу.
type Exam struct {
	ID int64
	// UserID — владелец экзамена
	UserID int64
	// ArtefactType — тип артефакта (cartridge_case, bullet)
	ArtefactType string
	// MetadataID — связанная запись metadata (1:1)
	MetadataID int64
}

// Sample — эталонный артефакт из репозитория сравнения (x3p_samples).
type Sample struct {
	ID         int64
	UserID     int64
	MetadataID int64
}

// Metadata — описательная запись, привязанная 1:1 к Exam или Sample.
type Metadata struct {
	ID          int64
	FileHash    string
	Name        string
	Description *string
	Crime       *string
	Calibre     *string
	// RecoveryLocation — место обнаружения
	RecoveryLocation *string
	// Region — географический регион
	Region *string
	// OccurrenceDate — дата/время происшествия
	OccurrenceDate *time.Time
	// Нарезные характеристики ствола
	NumberOfLandsAndGrooves    *string
	DirectionOfLandsAndGrooves *string
	RiflingManufacturing       *string
	ManufacturingMaterial      *string
}

// MatchingSample — запись одного scored-сравнения Exam ↔ Sample.
// Создаётся внешним scoring-процессом; MM меняет только MatchStatus и LastSeen.
type MatchingSample struct {
	ID       int64
	ExamID   int64
	SampleID int64
	// Score — численная совместимость (0.0–1.0+)
	Score float64
	// MatchStatus — статус проверки (см. константы Status*)
	MatchStatus string
	// LastSeen — время последнего просмотра/изменения статуса
	LastSeen *time.Time
}

// MatchRow — плоская проекция результата listTopMatching:
// matching_samples ⋈ x3p_samples ⋈ metadata.
// Поля metadata опциональны — joined-запись может их не содержать.
type MatchRow struct {
	ID       int64   `json:"id"`
	ExamID   int64   `json:"examId"`
	SampleID int64   `json:"sampleId"`
	FileHash string  `json:"fileHash"`
	Score    float64 `json:"score"`
	// OccurrenceDate — дата происшествия из metadata sample
	OccurrenceDate *time.Time `json:"occurrenceDate"`
	// RecoveryLocation — место обнаружения из metadata sample
	RecoveryLocation *string `json:"recoveryLocation"`
}

// ExportMatch — минимальная проекция matching_samples для экспорта:
// по статусу решается, включать ли файл sample в выгрузку.
type ExportMatch struct {
	ID          int64
	ExamID      int64
	SampleID    int64
	MatchStatus string
}

// Происхождение артефакта в отчёте.
const (
	OriginExam   = "exam"
	OriginSample = "sample"
)

// ArtifactDetail — развёрнутая запись артефакта для табличного отчёта:
// Exam или Sample вместе с joined metadata.
type ArtifactDetail struct {
	ID int64
	// Origin — происхождение: exam или sample
	Origin string
	// ArtefactType — тип артефакта (только для exam, у sample пусто)
	ArtefactType string
	Metadata     Metadata
}

// ArtifactFile — хранимый бинарный файл X3P, привязанный к Exam или Sample.
// Read-only для MM: используется только при сборке zip-выгрузки.
type ArtifactFile struct {
	ID int64
	// OwnerID — id x3p_exam или x3p_sample
	OwnerID  int64
	FileHash string
	FilePath string
}
