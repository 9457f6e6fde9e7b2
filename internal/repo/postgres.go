package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sir_venger/drive_lite/internal/models"
)

const filesMetaTable = "files_meta"

// PGStore сохраняет метаданные в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore создаёт подключение к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{pool: pool}, nil
}

// Get возвращает описание файла по его дайджесту.
func (s *PGStore) Get(ctx context.Context, id string) (models.File, error) {
	if strings.TrimSpace(id) == "" {
		return models.File{}, fmt.Errorf("file id is empty")
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("file_name", "size", "created_at").
		From(filesMetaTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.File{}, fmt.Errorf("build select: %w", err)
	}

	var (
		name      string
		size      int64
		createdAt time.Time
	)

	if err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&name, &size, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.File{}, models.ErrNotFound
		}
		return models.File{}, fmt.Errorf("scan file row: %w", err)
	}

	return models.File{
		ID:        id,
		Name:      name,
		Size:      size,
		CreatedAt: createdAt,
	}, nil
}

// Save записывает (или обновляет) описание файла. Повторный finish того же
// контента обновляет имя: последняя загрузка выигрывает.
func (s *PGStore) Save(ctx context.Context, file models.File) error {
	if strings.TrimSpace(file.ID) == "" {
		return fmt.Errorf("file id is empty")
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(filesMetaTable).
		Columns("id", "file_name", "size", "created_at").
		Values(file.ID, file.Name, file.Size, file.CreatedAt).
		Suffix(`
					ON CONFLICT (id) DO UPDATE
					SET file_name = EXCLUDED.file_name,
						size      = EXCLUDED.size`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
