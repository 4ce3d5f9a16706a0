package business

import (
	"context"
	"fmt"
	"sync"
)

type MemoryDirectory struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
}

func NewMemoryDirectory(profiles ...Profile) *MemoryDirectory {
	d := &MemoryDirectory{profiles: make(map[int64]Profile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.ID] = p
	}
	return d
}

func (d *MemoryDirectory) Profile(_ context.Context, businessID int64) (Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[businessID]
	if !ok {
		return Profile{}, fmt.Errorf("business %d: %w", businessID, ErrNotFound)
	}
	return p, nil
}
