package filesvc

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sir_venger/drive_lite/internal/models"
)

// Registry — общепроцессная таблица открытых сессий загрузки. Состояние живёт
// только в памяти: рестарт процесса теряет сессии, клиент начинает новую
// (задокументированное ограничение v1).
//
// Блокировки двухуровневые: короткий RWMutex на саму таблицу и мьютекс на
// каждую сессию. Операции над разными сессиями не конкурируют между собой.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	received  map[int]struct{}
	createdAt time.Time
	lastSeen  time.Time
	finalized bool
}

// NewRegistry создаёт пустой реестр сессий.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*session{}}
}

// Init регистрирует новую сессию и возвращает её снимок (пустой received-set).
func (r *Registry) Init() models.UploadStatus {
	now := time.Now()
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &session{
		received:  map[int]struct{}{},
		createdAt: now,
		lastSeen:  now,
	}
	r.mu.Unlock()

	return models.UploadStatus{
		UploadID:  id,
		Received:  []int{},
		CreatedAt: now,
	}
}

// Touch проверяет, что сессия жива, и продлевает её idle-таймер.
func (r *Registry) Touch(id string) error {
	s := r.lookup(id)
	if s == nil {
		return models.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return models.ErrSessionNotFound
	}
	s.lastSeen = time.Now()

	return nil
}

// Record отмечает индекс принятым. Идемпотентен: повтор того же индекса не ошибка.
func (r *Registry) Record(id string, idx int) error {
	s := r.lookup(id)
	if s == nil {
		return models.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return models.ErrSessionNotFound
	}
	s.received[idx] = struct{}{}
	s.lastSeen = time.Now()

	return nil
}

// Snapshot возвращает отсортированный received-set; для резюмирования и
// проверки полноты перед merge.
func (r *Registry) Snapshot(id string) (models.UploadStatus, error) {
	s := r.lookup(id)
	if s == nil {
		return models.UploadStatus{}, models.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return models.UploadStatus{}, models.ErrSessionNotFound
	}

	return models.UploadStatus{
		UploadID:  id,
		Received:  sortedIndices(s.received),
		CreatedAt: s.createdAt,
	}, nil
}

// Finalize изымает сессию из таблицы и возвращает её received-set. Ровно один
// из конкурентных вызовов получает сессию, остальные — ErrSessionNotFound:
// это и даёт гарантию «не больше одного merge на сессию».
func (r *Registry) Finalize(id string) (map[int]struct{}, error) {
	r.mu.Lock()
	s := r.sessions[id]
	if s != nil {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if s == nil {
		return nil, models.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, models.ErrSessionNotFound
	}
	s.finalized = true

	received := make(map[int]struct{}, len(s.received))
	for idx := range s.received {
		received[idx] = struct{}{}
	}

	return received, nil
}

// Contains отвечает, известна ли сессия реестру (для GC директорий-сирот).
func (r *Registry) Contains(id string) bool {
	return r.lookup(id) != nil
}

// ExpireIdle изымает сессии, простаивающие дольше ttl, и возвращает их
// идентификаторы, чтобы вызывающий зачистил чанки на диске.
func (r *Registry) ExpireIdle(ttl time.Duration) []string {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen) >= ttl
		if idle {
			s.finalized = true
		}
		s.mu.Unlock()

		if idle {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}

	return expired
}

func (r *Registry) lookup(id string) *session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

func sortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
