// Package chunkstore хранит чанки незавершённых загрузок во временных
// директориях вида {root}/{uploadID}/chunk_0000. Директория сессии живёт до
// успешного merge либо до GC по таймауту.
package chunkstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sir_venger/drive_lite/internal/models"
)

const chunkFileFormat = "chunk_%04d"

// Store пишет и читает чанки поверх локального диска.
type Store struct {
	root     string
	maxBytes int64
}

// New создаёт хранилище чанков с ограничением на размер одного чанка.
func New(root string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("chunkstore: max chunk size must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	return &Store{root: root, maxBytes: maxBytes}, nil
}

// MaxBytes возвращает действующий лимит размера чанка.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Write сохраняет чанк, перезаписывая предыдущий payload того же индекса
// (повторная отправка при ретрае — не ошибка). Возвращает число записанных байт.
func (s *Store) Write(uploadID string, idx int, r io.Reader) (int64, error) {
	path, err := s.chunkPath(uploadID, idx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	// Пишем во временный файл и атомарно переименовываем: параллельный Read
	// того же индекса никогда не увидит полузаписанный чанк.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	if n > s.maxBytes {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("chunk %d is over %d bytes: %w", idx, s.maxBytes, models.ErrChunkTooLarge)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	return n, nil
}

// Open открывает чанк на чтение.
func (s *Store) Open(uploadID string, idx int) (io.ReadCloser, error) {
	path, err := s.chunkPath(uploadID, idx)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("chunk %d of %s: %w", idx, uploadID, models.ErrChunkMissing)
	}
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Exists отвечает, записан ли чанк с данным индексом.
func (s *Store) Exists(uploadID string, idx int) bool {
	path, err := s.chunkPath(uploadID, idx)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Discard удаляет все чанки сессии. Best-effort: отсутствие директории не ошибка.
func (s *Store) Discard(uploadID string) error {
	dir, err := s.sessionDir(uploadID)
	if err != nil {
		return err
	}

	return os.RemoveAll(dir)
}

// Stale возвращает идентификаторы сессий, чьи директории не менялись дольше ttl.
// Используется GC для зачистки брошенных загрузок.
func (s *Store) Stale(ttl time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	var stale []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= ttl {
			stale = append(stale, e.Name())
		}
	}

	return stale, nil
}

func (s *Store) sessionDir(uploadID string) (string, error) {
	if !validUploadID(uploadID) {
		return "", fmt.Errorf("bad upload id %q: %w", uploadID, models.ErrSessionNotFound)
	}

	return filepath.Join(s.root, uploadID), nil
}

func (s *Store) chunkPath(uploadID string, idx int) (string, error) {
	if idx < 0 {
		return "", fmt.Errorf("chunk index must be non-negative: %w", models.ErrInvalidRequest)
	}

	dir, err := s.sessionDir(uploadID)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, fmt.Sprintf(chunkFileFormat, idx)), nil
}

// validUploadID отсекает path traversal: идентификатор обязан быть одним
// компонентом пути.
func validUploadID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	return !strings.ContainsAny(id, `/\`)
}
