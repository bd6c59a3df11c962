// Package directory resolves doctor ids for the booking engine.
package directory

import (
	"context"
	"sync"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

// Static serves a fixed doctor list. It backs memory mode and tests.
type Static struct {
	mu      sync.RWMutex
	doctors map[int64]model.Doctor
}

func NewStatic(doctors ...model.Doctor) *Static {
	s := &Static{doctors: make(map[int64]model.Doctor, len(doctors))}
	for _, d := range doctors {
		s.doctors[d.ID] = d
	}
	return s
}

func (s *Static) Put(d model.Doctor) {
	s.mu.Lock()
	s.doctors[d.ID] = d
	s.mu.Unlock()
}

func (s *Static) Doctor(_ context.Context, id int64) (model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, scheduling.ErrNoRecord
	}
	return d, nil
}

// DemoDoctors is the roster used when the service runs without a directory.
func DemoDoctors() []model.Doctor {
	return []model.Doctor{
		{ID: 101, Name: "Dr. Asha Menon", DepartmentID: 1, DepartmentName: "Cardiology"},
		{ID: 102, Name: "Dr. Rahul Nair", DepartmentID: 1, DepartmentName: "Cardiology"},
		{ID: 201, Name: "Dr. Priya Varma", DepartmentID: 2, DepartmentName: "Dermatology"},
		{ID: 301, Name: "Dr. Kiran Das", DepartmentID: 3, DepartmentName: "Pediatrics"},
	}
}
