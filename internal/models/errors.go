package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("file not found")
	ErrSessionNotFound     = errors.New("upload session not found")
	ErrChunkMissing        = errors.New("chunk not found")
	ErrChunkTooLarge       = errors.New("chunk exceeds size limit")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrIncomplete          = errors.New("upload incomplete")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// IncompleteError сообщает клиенту, каких именно чанков не хватает для merge.
// Сессия при этом остаётся открытой: достаточно дослать перечисленные индексы
// и повторить finish.
type IncompleteError struct {
	Missing []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("upload incomplete: missing chunks %v", e.Missing)
}

// Is позволяет ловить ошибку через errors.Is(err, ErrIncomplete).
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}
