package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ExitRepository implementa repository.ExitRepository en memoria con las mismas
// restricciones que las llaves foráneas del esquema Postgres.
type ExitRepository struct {
	sc scope
}

func (r *ExitRepository) Create(_ context.Context, exit *entity.ExitDocument) error {
	return r.sc.write(func(s *state) error {
		if _, ok := s.exits[exit.ID]; ok {
			return fmt.Errorf("salida %s ya existe", exit.ID)
		}
		s.exits[exit.ID] = copyExit(*exit)
		return nil
	})
}

func (r *ExitRepository) GetByID(_ context.Context, id string) (*entity.ExitDocument, error) {
	var out *entity.ExitDocument
	_ = r.sc.read(func(s *state) error {
		if e, ok := s.exits[id]; ok {
			c := copyExit(e)
			out = &c
		}
		return nil
	})
	return out, nil
}

func (r *ExitRepository) GetForUpdate(ctx context.Context, id string) (*entity.ExitDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *ExitRepository) Update(_ context.Context, exit *entity.ExitDocument) error {
	return r.sc.write(func(s *state) error {
		if _, ok := s.exits[exit.ID]; !ok {
			return fmt.Errorf("salida %s no existe", exit.ID)
		}
		s.exits[exit.ID] = copyExit(*exit)
		return nil
	})
}

func (r *ExitRepository) Delete(_ context.Context, id string) error {
	return r.sc.write(func(s *state) error {
		if len(s.allocations[id]) > 0 {
			return fmt.Errorf("salida %s aún tiene asignaciones", id)
		}
		delete(s.exits, id)
		delete(s.allocations, id)
		return nil
	})
}

func (r *ExitRepository) ListAllocations(_ context.Context, exitID string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	_ = r.sc.read(func(s *state) error {
		for _, a := range s.allocations[exitID] {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	return out, nil
}

func (r *ExitRepository) InsertAllocations(_ context.Context, allocations []*entity.Allocation) error {
	return r.sc.write(func(s *state) error {
		for _, a := range allocations {
			if _, ok := s.exits[a.ExitID]; !ok {
				return fmt.Errorf("asignación %s: salida %s no existe", a.ID, a.ExitID)
			}
			if _, ok := s.lots[a.LotID]; !ok {
				return fmt.Errorf("asignación %s: lote %s no existe", a.ID, a.LotID)
			}
			s.allocations[a.ExitID] = append(s.allocations[a.ExitID], *a)
		}
		return nil
	})
}

func (r *ExitRepository) DeleteAllocations(_ context.Context, exitID string) error {
	return r.sc.write(func(s *state) error {
		delete(s.allocations, exitID)
		return nil
	})
}

func (r *ExitRepository) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]string, error) {
	type candidate struct {
		id      string
		expires time.Time
	}
	var found []candidate
	_ = r.sc.read(func(s *state) error {
		for _, e := range s.exits {
			if e.IsPending() && e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
				found = append(found, candidate{e.ID, *e.ExpiresAt})
			}
		}
		return nil
	})
	sort.Slice(found, func(i, j int) bool {
		if !found[i].expires.Equal(found[j].expires) {
			return found[i].expires.Before(found[j].expires)
		}
		return found[i].id < found[j].id
	})
	if len(found) > limit {
		found = found[:limit]
	}
	ids := make([]string, 0, len(found))
	for _, c := range found {
		ids = append(ids, c.id)
	}
	return ids, nil
}
