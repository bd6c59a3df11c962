package grpcserver

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/clinicslots/libs/directoryv1"
	"github.com/md-rashed-zaman/clinicslots/services/directory-service/internal/storage"
	"google.golang.org/grpc"
)

// DoctorSource is the lookup the gRPC server needs from storage.
type DoctorSource interface {
	GetDoctor(ctx context.Context, id int64) (storage.Doctor, error)
}

type server struct {
	doctors DoctorSource
}

func Register(s grpc.ServiceRegistrar, doctors DoctorSource) {
	directoryv1.RegisterDirectoryServer(s, &server{doctors: doctors})
}

func (s *server) GetDoctor(ctx context.Context, id int64) (directoryv1.Doctor, error) {
	d, err := s.doctors.GetDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return directoryv1.Doctor{}, directoryv1.ErrDoctorNotFound
		}
		return directoryv1.Doctor{}, err
	}
	return directoryv1.Doctor{
		ID:             d.ID,
		Name:           d.Name,
		DepartmentID:   d.DepartmentID,
		DepartmentName: d.DepartmentName,
		Specialization: d.Specialization,
	}, nil
}
