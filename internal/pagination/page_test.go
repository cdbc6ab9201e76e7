package pagination

import "testing"

// TestLimits проверяет расчёт limit/offset.
func TestLimits(t *testing.T) {
	limit, offset := Limits(0, 10)
	if limit != 10 || offset != 0 {
		t.Errorf("Limits(0, 10) = (%d, %d), ожидалось (10, 0)", limit, offset)
	}

	limit, offset = Limits(3, 25)
	if limit != 25 || offset != 75 {
		t.Errorf("Limits(3, 25) = (%d, %d), ожидалось (25, 75)", limit, offset)
	}
}

// TestLimits_Defaults проверяет нормализацию некорректных значений.
func TestLimits_Defaults(t *testing.T) {
	limit, offset := Limits(-1, 0)
	if limit != DefaultPageSize {
		t.Errorf("limit = %d, ожидался %d", limit, DefaultPageSize)
	}
	if offset != 0 {
		t.Errorf("offset = %d, ожидался 0", offset)
	}

	limit, _ = Limits(0, MaxPageSize+1)
	if limit != MaxPageSize {
		t.Errorf("limit = %d, ожидался %d", limit, MaxPageSize)
	}
}

// TestNew проверяет сборку конверта.
func TestNew(t *testing.T) {
	page := New([]int{1, 2, 3}, 0, 10, 23)

	if page.TotalItems != 23 {
		t.Errorf("TotalItems = %d, ожидался 23", page.TotalItems)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, ожидался 3 (округление вверх)", page.TotalPages)
	}
	if page.CurrentPage != 0 {
		t.Errorf("CurrentPage = %d, ожидался 0", page.CurrentPage)
	}
	if page.PageSize != 10 {
		t.Errorf("PageSize = %d, ожидался 10", page.PageSize)
	}
	if len(page.Items) != 3 {
		t.Errorf("Items count = %d, ожидался 3", len(page.Items))
	}
}

// TestNew_NilItems проверяет, что nil-результат превращается в пустой срез.
func TestNew_NilItems(t *testing.T) {
	page := New[int](nil, 0, 10, 0)
	if page.Items == nil {
		t.Error("Items = nil, ожидался пустой срез")
	}
	if page.TotalPages != 0 {
		t.Errorf("TotalPages = %d, ожидался 0", page.TotalPages)
	}
}

// TestEmpty проверяет явный пустой конверт.
func TestEmpty(t *testing.T) {
	page := Empty[string]()
	if page.TotalItems != 0 || page.TotalPages != 0 || page.CurrentPage != 0 {
		t.Errorf("Empty() = %+v, ожидались нулевые значения", page)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Error("Items должен быть пустым не-nil срезом")
	}
}
