package retention

import (
	"context"
	"errors"
	"sync"

	"github.com/cartload/server/internal/region"
)

type actuatorCall struct {
	world  string
	region region.ID
	active bool
}

type recordingActuator struct {
	calls         []actuatorCall
	deactivateErr error
}

func (a *recordingActuator) Activate(world string, r region.ID) error {
	a.calls = append(a.calls, actuatorCall{world: world, region: r, active: true})
	return nil
}

func (a *recordingActuator) Deactivate(world string, r region.ID) error {
	a.calls = append(a.calls, actuatorCall{world: world, region: r, active: false})
	return a.deactivateErr
}

func (a *recordingActuator) count(r region.ID, active bool) int {
	n := 0
	for _, c := range a.calls {
		if c.region == r && c.active == active {
			n++
		}
	}
	return n
}

func (a *recordingActuator) reset() { a.calls = nil }

type memStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	readErr  error
	writeErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Read(_ context.Context, world string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.files[world]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *memStorage) Write(_ context.Context, world string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.files[world] = append([]byte(nil), data...)
	return nil
}

func (s *memStorage) Delete(_ context.Context, world string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.files, world)
	return nil
}

func (s *memStorage) has(world string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[world]
	return ok
}

var errDisk = errors.New("disk full")

type staticObserver struct {
	entities map[string][]Tracked
}

func (o *staticObserver) TrackedEntities(world string) []Tracked {
	return o.entities[world]
}

func movedAt(tick int64) *int64 { return &tick }
