package repository

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/balliscan/matching-module/internal/config"
	"github.com/balliscan/matching-module/internal/database"
)

// setupRepoDB запускает PostgreSQL в Docker-контейнере, применяет миграции
// и возвращает пул подключений к чистой схеме.
func setupRepoDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("matching_test"),
		postgres.WithUsername("matching"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	os.Setenv("MM_DB_HOST", host)
	os.Setenv("MM_DB_PORT", port.Port())
	os.Setenv("MM_DB_NAME", "matching_test")
	os.Setenv("MM_DB_USER", "matching")
	os.Setenv("MM_DB_PASSWORD", "test-password")
	os.Setenv("MM_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// insertReturningID вставляет строку и возвращает её id.
func insertReturningID(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(context.Background(), query, args...).Scan(&id); err != nil {
		t.Fatalf("Ошибка вставки тестовых данных: %v", err)
	}
	return id
}

// TestFindAndCountTop_EqualScoreOrder проверяет детерминированный порядок
// при равных score: три совпадения с одинаковым score возвращаются
// по возрастанию id независимо от направления сортировки по score.
func TestFindAndCountTop_EqualScoreOrder(t *testing.T) {
	pool := setupRepoDB(t)
	ctx := context.Background()

	userID := insertReturningID(t, pool,
		`INSERT INTO users (subject, username, agency)
		 VALUES ('sub-it-1', 'expert', 'Central Lab') RETURNING id`)

	examMetaID := insertReturningID(t, pool,
		`INSERT INTO metadata (file_hash, name) VALUES ('exam-hash', 'exam') RETURNING id`)
	examID := insertReturningID(t, pool,
		`INSERT INTO x3p_exams (user_id, artefact_type, metadata_id)
		 VALUES ($1, 'BULLET', $2) RETURNING id`, userID, examMetaID)

	var sampleIDs []int64
	var matchIDs []int64
	for _, hash := range []string{"s-aaa", "s-bbb", "s-ccc"} {
		metaID := insertReturningID(t, pool,
			`INSERT INTO metadata (file_hash, name) VALUES ($1, $1) RETURNING id`, hash)
		sampleID := insertReturningID(t, pool,
			`INSERT INTO x3p_samples (user_id, metadata_id) VALUES ($1, $2) RETURNING id`,
			userID, metaID)
		sampleIDs = append(sampleIDs, sampleID)

		// Все три совпадения с одинаковым score
		matchID := insertReturningID(t, pool,
			`INSERT INTO matching_samples (exam_id, sample_id, score)
			 VALUES ($1, $2, 0.42) RETURNING id`, examID, sampleID)
		matchIDs = append(matchIDs, matchID)
	}

	repo := NewMatchingRepository(pool)
	desc := "desc"

	rows, total, err := repo.FindAndCountTop(ctx, TopMatchParams{
		ExamID:    examID,
		SampleIDs: sampleIDs,
		MinScore:  0.01,
		Sort:      SortParams{Score: &desc},
		Limit:     10,
		Offset:    0,
	})
	if err != nil {
		t.Fatalf("FindAndCountTop() вернул ошибку: %v", err)
	}

	if total != 3 {
		t.Errorf("total = %d, ожидалось 3", total)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, ожидалось 3", len(rows))
	}

	for i, row := range rows {
		if row.ID != matchIDs[i] {
			t.Errorf("rows[%d].ID = %d, ожидался %d (порядок по возрастанию id)",
				i, row.ID, matchIDs[i])
		}
		if row.Score != 0.42 {
			t.Errorf("rows[%d].Score = %v, ожидалось 0.42", i, row.Score)
		}
	}
}
