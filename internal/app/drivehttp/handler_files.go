package drivehttp

import (
	"net/http"

	"github.com/sir_venger/drive_lite/internal/models"
	"github.com/sir_venger/drive_lite/pkg/httperrors"
)

// listResp — ответ листинга хранилища.
type listResp struct {
	Entries      []models.Entry `json:"entries"`
	TotalEntries int            `json:"total_entries"`
}

// listFiles перечисляет установленные объекты. Хранилище content-addressed и
// плоское, поэтому параметр path трактуется как префикс дайджеста, а
// recursive принимается и игнорируется (совместимость со старым клиентом).
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("path")

	entries, err := s.FilesService.List(r.Context(), prefix)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResp{
		Entries:      entries,
		TotalEntries: len(entries),
	})
}

// stats отдаёт агрегаты по хранилищу.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.FilesService.Stats(r.Context())
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}
