package e2e

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// startPostgres starts a PostgreSQL testcontainer, returns DSN + cleanup func.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("repaso_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("pg connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return dsn, cleanup, nil
}

// startRedis starts a Redis testcontainer, returns URL + cleanup func.
func startRedis(ctx context.Context) (string, func(), error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("start redis: %w", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("redis connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return url, cleanup, nil
}

// seeder inserts catalog fixtures through a separate connection pool, since
// the catalogs are read-only from the service's point of view.
type seeder struct {
	db *pgxpool.Pool
}

func newSeeder(ctx context.Context, dsn string) (*seeder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("seed pool: %w", err)
	}
	return &seeder{db: pool}, nil
}

func (s *seeder) close() {
	s.db.Close()
}

func (s *seeder) question(ctx context.Context, subjectID string, validated bool, quality float64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO questions (id, subject_id, prompt, options, answer, validated, quality_score, created_at)
		VALUES ($1, $2, 'prompt', '{"a","b","c"}', 'a', $3, $4, NOW())`,
		id, subjectID, validated, quality)
	if err != nil {
		return "", fmt.Errorf("seed question: %w", err)
	}
	return id, nil
}

func (s *seeder) flashcard(ctx context.Context, subjectID string, createdAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO flashcards (id, subject_id, front, back, created_at)
		VALUES ($1, $2, 'front', 'back', $3)`,
		id, subjectID, createdAt)
	if err != nil {
		return "", fmt.Errorf("seed flashcard: %w", err)
	}
	return id, nil
}

func (s *seeder) deleteQuestion(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
