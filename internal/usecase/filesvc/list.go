package filesvc

import (
	"context"

	"github.com/sir_venger/drive_lite/internal/models"
)

// List перечисляет содержимое финального хранилища, обогащая записи именами
// из индекса метаданных. prefix фильтрует по началу дайджеста; хранилище
// плоское, так что это и есть «путь» листинга.
func (s *Files) List(ctx context.Context, prefix string) ([]models.Entry, error) {
	entries, err := s.Blobs.List(prefix)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if fr, metaErr := s.Meta.Get(ctx, entries[i].Hash); metaErr == nil {
			entries[i].Name = fr.Name
		}
	}

	return entries, nil
}

// Stats агрегирует число объектов и суммарный размер хранилища.
func (s *Files) Stats(_ context.Context) (Stats, error) {
	count, total, err := s.Blobs.TotalBytes()
	if err != nil {
		return Stats{}, err
	}

	return Stats{Files: count, TotalBytes: total}, nil
}
