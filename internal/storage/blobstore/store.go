// Package blobstore — финальное content-addressed хранилище: объект лежит в
// {root}/{sha256-hex}, ключ выводится из содержимого. Установка атомарна
// (rename из staging-директории на той же ФС), объекты иммутабельны.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sir_venger/drive_lite/internal/models"
)

const stagingDirName = ".staging"

// Store — плоское хранилище по дайджесту поверх локального диска.
type Store struct {
	root    string
	staging string
}

// New создаёт (при необходимости) корень хранилища и staging-директорию.
func New(root string) (*Store, error) {
	staging := filepath.Join(root, stagingDirName)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, err
	}

	return &Store{root: root, staging: staging}, nil
}

// Exists отвечает, установлен ли объект с данным дайджестом.
func (s *Store) Exists(hash string) bool {
	path, err := s.blobPath(hash)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Stage открывает временный файл под сборку будущего объекта. Файл создаётся
// в staging-директории на той же файловой системе, чтобы Install мог сделать
// атомарный rename.
func (s *Store) Stage() (*os.File, error) {
	return os.CreateTemp(s.staging, "merge-*")
}

// Install атомарно устанавливает собранный файл под дайджест-ключ.
// Идемпотентен: если объект уже существует, staged-файл просто удаляется —
// содержимое по определению идентично.
func (s *Store) Install(stagedPath, hash string) error {
	path, err := s.blobPath(hash)
	if err != nil {
		_ = os.Remove(stagedPath)
		return err
	}

	if s.Exists(hash) {
		return os.Remove(stagedPath)
	}

	// Гонка двух install одного дайджеста безопасна: rename атомарен, а оба
	// кандидата байт-в-байт совпадают.
	if err := os.Rename(stagedPath, path); err != nil {
		_ = os.Remove(stagedPath)
		return err
	}

	return nil
}

// DiscardStaged удаляет недособранный staged-файл.
func (s *Store) DiscardStaged(stagedPath string) {
	_ = os.Remove(stagedPath)
}

// Open возвращает объект как seekable-источник вместе с его размером.
func (s *Store) Open(hash string) (*os.File, int64, error) {
	path, err := s.blobPath(hash)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, fmt.Errorf("blob %s: %w", hash, models.ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, info.Size(), nil
}

// Size возвращает размер объекта, не открывая его.
func (s *Store) Size(hash string) (int64, error) {
	path, err := s.blobPath(hash)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("blob %s: %w", hash, models.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// List перечисляет установленные объекты, опционально фильтруя по префиксу
// дайджеста. Снимок состояния на момент вызова, без гарантий против
// конкурентных install'ов.
func (s *Store) List(prefix string) ([]models.Entry, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !validDigest(e.Name()) {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, models.Entry{
			Hash: e.Name(),
			Size: info.Size(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out, nil
}

// TotalBytes суммирует размер всех установленных объектов (для /stats и /health).
func (s *Store) TotalBytes() (count int, total int64, err error) {
	list, err := s.List("")
	if err != nil {
		return 0, 0, err
	}
	for _, e := range list {
		total += e.Size
	}

	return len(list), total, nil
}

func (s *Store) blobPath(hash string) (string, error) {
	if !validDigest(hash) {
		return "", fmt.Errorf("bad content hash %q: %w", hash, models.ErrNotFound)
	}

	return filepath.Join(s.root, hash), nil
}

// validDigest проверяет, что ключ — это 64 символа hex (SHA-256), и заодно
// исключает любые попытки path traversal через ключ.
func validDigest(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' {
			continue
		}
		return false
	}

	return true
}
