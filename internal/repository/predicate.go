// predicate.go — построение динамических условий фильтрации.
//
// Каждый опциональный параметр запроса превращается чистой функцией в
// дескриптор Predicate (столбец, оператор, значение); отсутствующий параметр
// дескриптора не порождает. Дескрипторы транслируются в SQL-фрагменты только
// с bound $-параметрами — значения никогда не вклеиваются в текст запроса.
// Пустой набор дескрипторов означает "без фильтрации", а не "ничего".
package repository

import (
	"fmt"
	"strings"
	"time"
)

// Op — оператор предиката.
type Op string

// Допустимые операторы.
const (
	// OpEq — точное совпадение.
	OpEq Op = "eq"
	// OpGte — нижняя граница включительно.
	OpGte Op = "gte"
	// OpLte — верхняя граница включительно.
	OpLte Op = "lte"
	// OpSuffix — совпадение по суффиксу без учёта регистра (ILIKE '%значение').
	OpSuffix Op = "suffix"
	// OpIn — членство в наборе (= ANY массива-параметра).
	OpIn Op = "in"
)

// Predicate — дескриптор одного условия фильтрации.
// Column задаётся кодом модуля (с алиасом таблицы), Value — пользовательское
// значение, уходящее в запрос исключительно как параметр.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// RenderWhere транслирует предикаты в WHERE-условие и аргументы.
// startArg — номер первого $-параметра (для корректной нумерации после уже
// занятых позиций). Пустой набор возвращает пустую строку.
func RenderWhere(preds []Predicate, startArg int) (whereClause string, args []any) {
	conditions, args := renderConditions(preds, startArg)
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// renderConditions транслирует предикаты в список SQL-фрагментов.
// Используется и напрямую, когда фрагменты добавляются к уже существующему
// WHERE (joined-запросы с фиксированными условиями).
func renderConditions(preds []Predicate, startArg int) (conditions []string, args []any) {
	argNum := startArg
	for _, p := range preds {
		switch p.Op {
		case OpEq:
			conditions = append(conditions, fmt.Sprintf("%s = $%d", p.Column, argNum))
			args = append(args, p.Value)
		case OpGte:
			conditions = append(conditions, fmt.Sprintf("%s >= $%d", p.Column, argNum))
			args = append(args, p.Value)
		case OpLte:
			conditions = append(conditions, fmt.Sprintf("%s <= $%d", p.Column, argNum))
			args = append(args, p.Value)
		case OpSuffix:
			conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", p.Column, argNum))
			args = append(args, fmt.Sprintf("%%%v", p.Value))
		case OpIn:
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", p.Column, argNum))
			args = append(args, p.Value)
		default:
			// Неизвестный оператор условия не порождает
			continue
		}
		argNum++
	}
	return conditions, args
}

// MetaFilter — опциональные фильтры по metadata для listTopMatching.
// Все поля — указатели, nil = фильтр не применяется.
type MetaFilter struct {
	// Region — точное совпадение по региону
	Region *string
	// Country — суффиксное совпадение по месту обнаружения
	Country *string
	// StartOccurrenceDate — нижняя граница даты происшествия (календарный день)
	StartOccurrenceDate *time.Time
	// EndOccurrenceDate — верхняя граница даты происшествия (календарный день)
	EndOccurrenceDate *time.Time
}

// MetadataPredicates строит предикаты по metadata (алиас md).
// Границы дат нормализуются к началу/концу суток в UTC, обе включительно.
func MetadataPredicates(f MetaFilter) []Predicate {
	var preds []Predicate
	if f.Region != nil && *f.Region != "" {
		preds = append(preds, Predicate{Column: "md.region", Op: OpEq, Value: *f.Region})
	}
	if f.Country != nil && *f.Country != "" {
		preds = append(preds, Predicate{Column: "md.recovery_location", Op: OpSuffix, Value: *f.Country})
	}
	if f.StartOccurrenceDate != nil {
		preds = append(preds, Predicate{Column: "md.occurrence_date", Op: OpGte, Value: dayStartUTC(*f.StartOccurrenceDate)})
	}
	if f.EndOccurrenceDate != nil {
		preds = append(preds, Predicate{Column: "md.occurrence_date", Op: OpLte, Value: dayEndUTC(*f.EndOccurrenceDate)})
	}
	return preds
}

// ExportFilter — опциональные фильтры выборки matching_samples для экспорта.
// Пустой срез эквивалентен отсутствию фильтра.
type ExportFilter struct {
	// ActivityIDs — идентификаторы matching_samples
	ActivityIDs []int64
	// MatchStatuses — статусы проверки
	MatchStatuses []string
	// ArtefactTypes — типы артефакта экзамена
	ArtefactTypes []string
	// Crimes — категории преступления из metadata экзамена
	Crimes []string
	// Calibres — калибры из metadata экзамена
	Calibres []string
}

// ExportMatchingPredicates строит предикаты по matching_samples (алиас m).
func ExportMatchingPredicates(f ExportFilter) []Predicate {
	var preds []Predicate
	if len(f.ActivityIDs) > 0 {
		preds = append(preds, Predicate{Column: "m.id", Op: OpIn, Value: f.ActivityIDs})
	}
	if len(f.MatchStatuses) > 0 {
		preds = append(preds, Predicate{Column: "m.match_status", Op: OpIn, Value: f.MatchStatuses})
	}
	return preds
}

// ExportExamPredicates строит предикаты по x3p_exams (алиас e).
func ExportExamPredicates(f ExportFilter) []Predicate {
	var preds []Predicate
	if len(f.ArtefactTypes) > 0 {
		preds = append(preds, Predicate{Column: "e.artefact_type", Op: OpIn, Value: f.ArtefactTypes})
	}
	return preds
}

// ExportMetadataPredicates строит предикаты по metadata экзамена (алиас md).
func ExportMetadataPredicates(f ExportFilter) []Predicate {
	var preds []Predicate
	if len(f.Crimes) > 0 {
		preds = append(preds, Predicate{Column: "md.crime", Op: OpIn, Value: f.Crimes})
	}
	if len(f.Calibres) > 0 {
		preds = append(preds, Predicate{Column: "md.calibre", Op: OpIn, Value: f.Calibres})
	}
	return preds
}

// dayStartUTC нормализует момент к началу календарных суток в UTC.
func dayStartUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayEndUTC нормализует момент к концу календарных суток в UTC (включительно).
func dayEndUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, time.UTC)
}
