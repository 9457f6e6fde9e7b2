package drivehttp

import (
	"net/http"
	"time"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную запускает зачистку брошенных загрузок.
func (s *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	_ = s.FilesService.SweepOnce(manualGCTTL)
	w.WriteHeader(http.StatusNoContent)
}
