package filesvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sir_venger/drive_lite/internal/models"
)

// Finish валидирует полноту сессии, сливает чанки в один файл, считает его
// SHA-256 и устанавливает результат в content-addressed хранилище.
//
// Порядок принципиален: полнота проверяется до финализации — при нехватке
// чанков сессия остаётся открытой, клиент дошлёт недостающее и повторит finish.
// После финализации сессия изъята, и любой сбой ввода-вывода означает новую
// загрузку с нуля (задокументированное ограничение v1).
func (s *Files) Finish(ctx context.Context, uploadID, filename string, totalChunks int) (models.UploadResult, error) {
	if totalChunks <= 0 {
		return models.UploadResult{}, fmt.Errorf("total_chunks must be positive, got %d: %w", totalChunks, models.ErrInvalidRequest)
	}

	st, err := s.Sessions.Snapshot(uploadID)
	if err != nil {
		return models.UploadResult{}, err
	}

	if missing := missingIndices(st.Received, totalChunks); len(missing) > 0 {
		return models.UploadResult{}, &models.IncompleteError{Missing: missing}
	}
	if len(st.Received) > totalChunks {
		return models.UploadResult{}, fmt.Errorf("received chunks beyond declared total %d: %w", totalChunks, models.ErrInvalidRequest)
	}

	// Ровно один конкурентный finish проходит дальше этой точки.
	if _, err := s.Sessions.Finalize(uploadID); err != nil {
		return models.UploadResult{}, err
	}

	digest, size, err := s.mergeChunks(ctx, uploadID, totalChunks)
	if err != nil {
		return models.UploadResult{}, err
	}

	// Индекс метаданных информационный: его отказ не должен терять уже
	// установленный объект.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Meta.Save(saveCtx, models.File{
		ID:        digest,
		Name:      strings.TrimSpace(filename),
		Size:      size,
		CreatedAt: time.Now(),
	}); err != nil {
		log.Printf("finish %s: save meta for %s: %v", uploadID, digest, err)
	}

	if err := s.Chunks.Discard(uploadID); err != nil {
		log.Printf("finish %s: discard chunks: %v", uploadID, err)
	}

	return models.UploadResult{
		FileID: digest,
		Name:   strings.TrimSpace(filename),
		Size:   size,
	}, nil
}

// mergeChunks потоково конкатенирует чанки в строгом порядке индексов через
// SHA-256-аккумулятор в staging-файл blobstore и атомарно устанавливает его
// под вычисленный дайджест. Дубликат контента схлопывается в существующий
// объект внутри Install.
func (s *Files) mergeChunks(ctx context.Context, uploadID string, totalChunks int) (digest string, size int64, err error) {
	staged, err := s.Blobs.Stage()
	if err != nil {
		return "", 0, fmt.Errorf("stage merge file: %w", err)
	}

	hasher := sha256.New()
	w := io.MultiWriter(staged, hasher)

	for idx := 0; idx < totalChunks; idx++ {
		if err := ctx.Err(); err != nil {
			staged.Close()
			s.Blobs.DiscardStaged(staged.Name())
			return "", 0, err
		}

		// Сессия уже финализирована, поэтому пропавший на диске чанк — это
		// generic storage failure, а не ChunkMissing уровня API.
		rc, openErr := s.Chunks.Open(uploadID, idx)
		if openErr != nil {
			staged.Close()
			s.Blobs.DiscardStaged(staged.Name())
			return "", 0, fmt.Errorf("merge %s: chunk %d: %v", uploadID, idx, openErr)
		}

		n, copyErr := io.Copy(w, rc)
		rc.Close()
		if copyErr != nil {
			staged.Close()
			s.Blobs.DiscardStaged(staged.Name())
			return "", 0, fmt.Errorf("merge %s: copy chunk %d: %v", uploadID, idx, copyErr)
		}
		size += n
	}

	if err := staged.Close(); err != nil {
		s.Blobs.DiscardStaged(staged.Name())
		return "", 0, fmt.Errorf("merge %s: close staged: %v", uploadID, err)
	}

	digest = hex.EncodeToString(hasher.Sum(nil))
	if err := s.Blobs.Install(staged.Name(), digest); err != nil {
		return "", 0, fmt.Errorf("merge %s: install %s: %v", uploadID, digest, err)
	}

	return digest, size, nil
}

// missingIndices возвращает отсортированный список индексов из {0..total-1},
// отсутствующих в received.
func missingIndices(received []int, total int) []int {
	got := make(map[int]struct{}, len(received))
	for _, idx := range received {
		got[idx] = struct{}{}
	}

	var missing []int
	for idx := 0; idx < total; idx++ {
		if _, ok := got[idx]; !ok {
			missing = append(missing, idx)
		}
	}

	return missing
}
