// Пакет service — бизнес-логика Matching Module.
// CacheService — LRU-кэш записей экзаменов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/balliscan/matching-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш экзаменов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша экзаменов.",
	})
)

// CacheService — LRU-кэш записей экзаменов с автоматическим TTL.
// Каждый экземпляр MM имеет собственный in-memory кэш (per-instance, stateless архитектура).
// Экзамены читаются при каждом запросе топ-совпадений и меняются редко,
// поэтому короткий TTL достаточен для инвалидации.
type CacheService struct {
	cache *expirable.LRU[int64, *model.Exam]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[int64, *model.Exam](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает Exam из кэша по идентификатору.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(examID int64) (*model.Exam, bool) {
	val, ok := c.cache.Get(examID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
// Инвалидация не нужна: записи экзаменов модуль не изменяет,
// устаревание обеспечивается TTL.
func (c *CacheService) Set(examID int64, exam *model.Exam) {
	c.cache.Add(examID, exam)
}
