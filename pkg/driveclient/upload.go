package driveclient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize согласован с серверным лимитом.
	DefaultChunkSize = 4 << 20

	uploadParallelism = 4
	maxFinishRetries  = 3
)

// Upload загружает файл целиком: init, параллельная отправка чанков и finish.
// На 409 с недостающими индексами докачивает ровно их и повторяет finish —
// резюмирование работает и после обрыва отдельных чанков.
//
// src должен поддерживать произвольный доступ: чанки уходят параллельно.
func Upload(ctx context.Context, cli Client, baseURL, filename string, src io.ReaderAt, size, chunkSize int64) (FinishResult, error) {
	if size < 0 {
		return FinishResult{}, fmt.Errorf("size must be non-negative, got %d", size)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	total := int((size + chunkSize - 1) / chunkSize)
	if total == 0 {
		// пустой файл — один пустой чанк, иначе finish не пройдёт
		total = 1
	}

	sess, err := cli.Init(ctx, baseURL)
	if err != nil {
		return FinishResult{}, err
	}

	bar := newProgress("Uploading "+filename, size)

	indices := make([]int, 0, total)
	for idx := 0; idx < total; idx++ {
		indices = append(indices, idx)
	}

	for attempt := 0; ; attempt++ {
		if err := putChunks(ctx, cli, baseURL, sess.UploadID, src, size, chunkSize, indices, bar); err != nil {
			bar.Fail(err)
			return FinishResult{}, err
		}

		res, err := cli.Finish(ctx, baseURL, FinishRequest{
			UploadID:    sess.UploadID,
			Filename:    filename,
			TotalChunks: total,
		})
		if err == nil {
			bar.Done()
			return res, nil
		}

		var inc *IncompleteError
		if !errors.As(err, &inc) || attempt >= maxFinishRetries {
			bar.Fail(err)
			return FinishResult{}, err
		}

		// докачиваем ровно то, что сервер назвал недостающим
		indices = inc.Missing
	}
}

// putChunks параллельно отправляет перечисленные индексы, ограничивая
// конкуренцию uploadParallelism.
func putChunks(ctx context.Context, cli Client, baseURL, uploadID string, src io.ReaderAt, size, chunkSize int64, indices []int, bar *progress) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uploadParallelism)

	for _, idx := range indices {
		idx := idx
		eg.Go(func() error {
			off := int64(idx) * chunkSize
			n := chunkSize
			if off+n > size {
				n = size - off
			}
			if n < 0 {
				return fmt.Errorf("chunk %d is out of file bounds", idx)
			}

			reader := io.Reader(io.NewSectionReader(src, off, n))
			if bar != nil {
				reader = &progressReader{r: reader, p: bar}
			}

			return cli.PutChunk(egCtx, baseURL, PutChunkRequest{
				UploadID: uploadID,
				Index:    idx,
				Reader:   reader,
				Size:     n,
			})
		})
	}

	return eg.Wait()
}
