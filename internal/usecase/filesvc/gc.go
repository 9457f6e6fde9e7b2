package filesvc

import (
	"sync"
	"time"
)

// StartGC стартует периодическую зачистку брошенных загрузок. Возвращённая
// функция останавливает цикл; повторный вызов безопасен.
//
// GC здесь только возвращает место на диске: проверка полноты в Finish
// авторитетна сама по себе, таймауты на корректность не влияют.
func (s *Files) StartGC(ttl, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = s.SweepOnce(ttl)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// SweepOnce однократно зачищает: сперва протухшие по idle-таймауту сессии
// из реестра (вместе с их чанками), затем директории-сироты на диске — чанки
// сессий, потерянных при рестарте процесса или оставшихся после failed merge.
func (s *Files) SweepOnce(ttl time.Duration) error {
	for _, id := range s.Sessions.ExpireIdle(ttl) {
		_ = s.Chunks.Discard(id)
	}

	stale, err := s.Chunks.Stale(ttl)
	if err != nil {
		return err
	}
	for _, id := range stale {
		if s.Sessions.Contains(id) {
			continue
		}
		_ = s.Chunks.Discard(id)
	}

	return nil
}
