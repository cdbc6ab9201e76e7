package handlers

import (
	"net/url"
	"testing"
	"time"
)

// TestParseInt64Param проверяет разбор обязательного числового параметра.
func TestParseInt64Param(t *testing.T) {
	q := url.Values{"examId": []string{"42"}}
	v, err := parseInt64Param(q, "examId")
	if err != nil {
		t.Fatalf("parseInt64Param ошибка: %v", err)
	}
	if v != 42 {
		t.Errorf("значение = %d, ожидалось 42", v)
	}

	if _, err := parseInt64Param(url.Values{}, "examId"); err == nil {
		t.Error("ожидалась ошибка для отсутствующего параметра")
	}
	if _, err := parseInt64Param(url.Values{"examId": []string{"abc"}}, "examId"); err == nil {
		t.Error("ожидалась ошибка для нечислового значения")
	}
}

// TestParseIntDefault проверяет значения по умолчанию.
func TestParseIntDefault(t *testing.T) {
	v, err := parseIntDefault(url.Values{}, "pageNo", 7)
	if err != nil {
		t.Fatalf("parseIntDefault ошибка: %v", err)
	}
	if v != 7 {
		t.Errorf("значение = %d, ожидалось 7 (по умолчанию)", v)
	}

	v, err = parseIntDefault(url.Values{"pageNo": []string{"3"}}, "pageNo", 7)
	if err != nil {
		t.Fatalf("parseIntDefault ошибка: %v", err)
	}
	if v != 3 {
		t.Errorf("значение = %d, ожидалось 3", v)
	}
}

// TestParseDateParam проверяет разбор дат YYYY-MM-DD в UTC.
func TestParseDateParam(t *testing.T) {
	d, err := parseDateParam(url.Values{"startOccurrenceDate": []string{"2025-03-14"}}, "startOccurrenceDate")
	if err != nil {
		t.Fatalf("parseDateParam ошибка: %v", err)
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if d == nil || !d.Equal(want) {
		t.Errorf("дата = %v, ожидалось %v", d, want)
	}

	d, err = parseDateParam(url.Values{}, "startOccurrenceDate")
	if err != nil {
		t.Fatalf("parseDateParam ошибка для пустого параметра: %v", err)
	}
	if d != nil {
		t.Errorf("дата = %v, ожидался nil", d)
	}

	if _, err := parseDateParam(url.Values{"d": []string{"14.03.2025"}}, "d"); err == nil {
		t.Error("ожидалась ошибка для неверного формата даты")
	}
}

// TestParseListParam проверяет объединение повторов и значений через запятую.
func TestParseListParam(t *testing.T) {
	q := url.Values{"matchStatus": []string{"MATCHES,NO_MATCHES", "UNREVIEWED", " , "}}
	got := parseListParam(q, "matchStatus")

	want := []string{"MATCHES", "NO_MATCHES", "UNREVIEWED"}
	if len(got) != len(want) {
		t.Fatalf("список = %v, ожидалось %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("элемент [%d] = %q, ожидалось %q", i, got[i], want[i])
		}
	}

	if got := parseListParam(url.Values{}, "matchStatus"); got != nil {
		t.Errorf("список = %v, ожидался nil для отсутствующего параметра", got)
	}
}

// TestParseInt64ListParam проверяет разбор списка чисел.
func TestParseInt64ListParam(t *testing.T) {
	q := url.Values{"activityIds": []string{"1,2", "3"}}
	got, err := parseInt64ListParam(q, "activityIds")
	if err != nil {
		t.Fatalf("parseInt64ListParam ошибка: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("список = %v, ожидалось [1 2 3]", got)
	}

	if _, err := parseInt64ListParam(url.Values{"activityIds": []string{"1,x"}}, "activityIds"); err == nil {
		t.Error("ожидалась ошибка для нечислового элемента")
	}
}

// TestOptString проверяет опциональный строковый параметр.
func TestOptString(t *testing.T) {
	q := url.Values{"region": []string{"North"}}
	if got := optString(q, "region"); got == nil || *got != "North" {
		t.Errorf("значение = %v, ожидалось North", got)
	}
	if got := optString(q, "country"); got != nil {
		t.Errorf("значение = %v, ожидался nil", got)
	}
}
