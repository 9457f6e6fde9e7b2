package meta

import (
	"context"
	"sync"

	"github.com/sir_venger/drive_lite/internal/models"
)

// MemoryStore хранит метаданные только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]models.File
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]models.File{}}
}

// Get возвращает метаданные файла по дайджесту или ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fr, ok := s.files[id]
	if !ok {
		return models.File{}, models.ErrNotFound
	}
	return fr, nil
}

// Save записывает (или обновляет) метаданные файла целиком.
func (s *MemoryStore) Save(_ context.Context, fr models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fr.ID] = fr
	return nil
}

// Close ничего не освобождает: ресурсов нет.
func (s *MemoryStore) Close() {}
