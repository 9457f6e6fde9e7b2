// Package meta хранит индекс метаданных установленных файлов: дайджест →
// исходное имя, размер, время загрузки. Сам контент лежит в blobstore, индекс
// нужен только для человекочитаемых имён в листинге и заголовках скачивания.
package meta

import (
	"context"
	"strings"

	"github.com/sir_venger/drive_lite/internal/models"
)

// Store — контракт индекса метаданных.
type Store interface {
	Get(ctx context.Context, id string) (models.File, error)
	Save(ctx context.Context, file models.File) error
	Close()
}

// Open выбирает реализацию по DSN: memory:// — in-memory (тесты, dev),
// postgres:// — PGStore поверх pgxpool.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(strings.TrimSpace(dsn), "memory://") {
		return NewMemoryStore(), nil
	}

	return NewPGStore(ctx, dsn)
}
