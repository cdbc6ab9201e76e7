// Пакет pagination — расчёт limit/offset и сборка страничного конверта.
// Контракт конверта повторяет прежний REST API модуля:
// totalItems / items / totalPages / currentPage / pageSize.
package pagination

// Значения пагинации по умолчанию и ограничения.
const (
	// DefaultPageSize — размер страницы, если pageSize не задан или некорректен.
	DefaultPageSize = 10
	// MaxPageSize — верхняя граница размера страницы.
	MaxPageSize = 1000
)

// Page — страничный конверт ответа.
// Items всегда не-nil: пустой результат сериализуется как [], а не null.
type Page[T any] struct {
	TotalItems  int `json:"totalItems"`
	Items       []T `json:"items"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// Limits вычисляет (limit, offset) из номера страницы и её размера.
// Нумерация страниц с нуля. Отрицательные и нулевые значения нормализуются.
func Limits(pageNo, pageSize int) (limit, offset int) {
	limit = pageSize
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if pageNo < 0 {
		pageNo = 0
	}
	offset = pageNo * limit

	return limit, offset
}

// New собирает страничный конверт из результатов запроса.
// totalPages округляется вверх; limit <= 0 трактуется как DefaultPageSize.
func New[T any](items []T, pageNo, limit, totalItems int) *Page[T] {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if pageNo < 0 {
		pageNo = 0
	}
	if items == nil {
		items = []T{}
	}

	totalPages := (totalItems + limit - 1) / limit

	return &Page[T]{
		TotalItems:  totalItems,
		Items:       items,
		TotalPages:  totalPages,
		CurrentPage: pageNo,
		PageSize:    limit,
	}
}

// Empty возвращает явный пустой конверт: ноль элементов — это не ошибка.
func Empty[T any]() *Page[T] {
	return &Page[T]{
		TotalItems:  0,
		Items:       []T{},
		TotalPages:  0,
		CurrentPage: 0,
		PageSize:    0,
	}
}
