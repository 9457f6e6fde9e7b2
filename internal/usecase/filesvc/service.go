package filesvc

import (
	"context"
	"io"
	"time"

	"github.com/sir_venger/drive_lite/internal/models"
	"github.com/sir_venger/drive_lite/internal/storage/blobstore"
	"github.com/sir_venger/drive_lite/internal/storage/chunkstore"
)

type (
	// MetaStorage — индекс метаданных установленных файлов.
	MetaStorage interface {
		Get(ctx context.Context, id string) (models.File, error)
		Save(ctx context.Context, file models.File) error
	}

	// Service объединяет операции резюмируемой загрузки и выдачи файлов.
	Service interface {
		Init(ctx context.Context) (models.UploadStatus, error)
		PutChunk(ctx context.Context, uploadID string, idx int, r io.Reader) (int64, error)
		Status(ctx context.Context, uploadID string) (models.UploadStatus, error)
		Finish(ctx context.Context, uploadID, filename string, totalChunks int) (models.UploadResult, error)
		OpenDownload(ctx context.Context, fileID, rangeHeader string) (*Download, error)
		StatFile(ctx context.Context, fileID string) (models.File, error)
		List(ctx context.Context, prefix string) ([]models.Entry, error)
		Stats(ctx context.Context) (Stats, error)
		SweepOnce(ttl time.Duration) error
		StartGC(ttl, every time.Duration) func()
	}
)

// Stats — агрегированная статистика по финальному хранилищу.
type Stats struct {
	Files      int   `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

type Deps struct {
	Meta     MetaStorage
	Sessions *Registry
	Chunks   *chunkstore.Store
	Blobs    *blobstore.Store
}

type Files struct {
	Deps
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Files {
	return &Files{Deps: deps}
}

var _ Service = (*Files)(nil)

// Init открывает новую сессию загрузки.
func (s *Files) Init(_ context.Context) (models.UploadStatus, error) {
	return s.Sessions.Init(), nil
}

// PutChunk принимает один чанк. Порядок строгий: сперва байты на диск, и только
// потом отметка в реестре — превышение лимита размера не мутирует received-set.
func (s *Files) PutChunk(_ context.Context, uploadID string, idx int, r io.Reader) (int64, error) {
	if err := s.Sessions.Touch(uploadID); err != nil {
		return 0, err
	}

	n, err := s.Chunks.Write(uploadID, idx, r)
	if err != nil {
		return 0, err
	}

	// Если сессию успели финализировать, чанк останется сиротой — его подберёт GC.
	if err := s.Sessions.Record(uploadID, idx); err != nil {
		return 0, err
	}

	return n, nil
}

// Status возвращает снимок сессии для резюмирования: какие индексы уже приняты.
func (s *Files) Status(_ context.Context, uploadID string) (models.UploadStatus, error) {
	return s.Sessions.Snapshot(uploadID)
}
