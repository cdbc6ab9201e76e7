// params.go — разбор query-параметров: числа, даты, списки.
// Все значения фильтров уходят в repository как bound-параметры,
// поэтому здесь только синтаксическая валидация.
package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// dateLayout — формат дат в query-параметрах.
const dateLayout = "2006-01-02"

// parseInt64Param разбирает обязательный int64-параметр.
func parseInt64Param(q url.Values, name string) (int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("параметр %s обязателен", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("параметр %s: некорректное число %q", name, raw)
	}
	return v, nil
}

// parseIntDefault разбирает опциональный int-параметр со значением по умолчанию.
func parseIntDefault(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("параметр %s: некорректное число %q", name, raw)
	}
	return v, nil
}

// parseDateParam разбирает опциональную дату YYYY-MM-DD в UTC.
// Возвращает nil при отсутствии параметра.
func parseDateParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("параметр %s: некорректная дата %q (ожидается YYYY-MM-DD)", name, raw)
	}
	return &t, nil
}

// optString возвращает указатель на непустое значение параметра или nil.
func optString(q url.Values, name string) *string {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// parseListParam собирает список значений параметра: повторяющиеся
// вхождения и значения через запятую объединяются, пустые отбрасываются.
func parseListParam(q url.Values, name string) []string {
	var result []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// parseInt64ListParam собирает список int64-значений параметра.
func parseInt64ListParam(q url.Values, name string) ([]int64, error) {
	var result []int64
	for _, raw := range parseListParam(q, name) {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("параметр %s: некорректное число %q", name, raw)
		}
		result = append(result, v)
	}
	return result, nil
}
