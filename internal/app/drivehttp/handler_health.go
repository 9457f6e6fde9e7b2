package drivehttp

import (
	"net/http"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	Files      int   `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

// health возвращает liveness-флаг и занятый объём финального хранилища.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st, err := s.FilesService.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, healthStats{
		OK:         true,
		Files:      st.Files,
		TotalBytes: st.TotalBytes,
	})
}
