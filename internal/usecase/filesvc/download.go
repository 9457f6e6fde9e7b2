package filesvc

import (
	"context"
	"fmt"
	"io"

	"github.com/sir_venger/drive_lite/internal/models"
)

// Download — открытый на чтение (возможно частичный) поток файла. Body отдаёт
// ровно Length байт начиная с Offset; Close обязателен и освобождает файловый
// дескриптор даже при обрыве клиента посреди стрима.
type Download struct {
	Body    io.ReadCloser
	Name    string // имя из индекса метаданных, "" если неизвестно
	Size    int64  // полный размер объекта
	Offset  int64
	Length  int64
	Partial bool
}

// OpenDownload открывает файл по дайджесту, разбирая опциональный Range-заголовок.
func (s *Files) OpenDownload(ctx context.Context, fileID, rangeHeader string) (*Download, error) {
	f, size, err := s.Blobs.Open(fileID)
	if err != nil {
		return nil, err
	}

	var name string
	if fr, metaErr := s.Meta.Get(ctx, fileID); metaErr == nil {
		name = fr.Name
	}

	spec, err := ParseRange(rangeHeader, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	if spec == nil {
		return &Download{
			Body:   f,
			Name:   name,
			Size:   size,
			Length: size,
		}, nil
	}

	if _, err := f.Seek(spec.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s to %d: %w", fileID, spec.Start, err)
	}

	length := spec.End - spec.Start + 1
	return &Download{
		Body:    &limitedFile{r: io.LimitReader(f, length), f: f},
		Name:    name,
		Size:    size,
		Offset:  spec.Start,
		Length:  length,
		Partial: true,
	}, nil
}

// StatFile возвращает метаданные файла для HEAD-запросов: размер с диска,
// имя из индекса.
func (s *Files) StatFile(ctx context.Context, fileID string) (models.File, error) {
	size, err := s.Blobs.Size(fileID)
	if err != nil {
		return models.File{}, err
	}

	out := models.File{ID: fileID, Size: size}
	if fr, metaErr := s.Meta.Get(ctx, fileID); metaErr == nil {
		out.Name = fr.Name
		out.CreatedAt = fr.CreatedAt
	}

	return out, nil
}

// limitedFile — LimitReader поверх файла, закрывающий сам файл.
type limitedFile struct {
	r io.Reader
	f io.Closer
}

func (l *limitedFile) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedFile) Close() error               { return l.f.Close() }
