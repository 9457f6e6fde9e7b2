package httperrors

import (
	"errors"
	"net/http"

	"github.com/sir_venger/drive_lite/internal/models"
)

// Write транслирует доменные ошибки в HTTP-статусы. Всё, что не входит в
// таксономию, считается внутренним сбоем хранилища → 500.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrChunkMissing):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrChunkTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, models.ErrIncomplete):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrRangeNotSatisfiable):
		http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
