package directoryv1

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type fakeDirectory map[int64]Doctor

func (f fakeDirectory) GetDoctor(_ context.Context, id int64) (Doctor, error) {
	d, ok := f[id]
	if !ok {
		return Doctor{}, ErrDoctorNotFound
	}
	return d, nil
}

func TestGetDoctorOverGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	RegisterDirectoryServer(srv, fakeDirectory{
		7: {ID: 7, Name: "Dr. Asha Rao", DepartmentID: 2, DepartmentName: "Cardiology", Specialization: "Cardiologist"},
	})
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewClient(conn)
	got, err := client.GetDoctor(ctx, 7)
	if err != nil {
		t.Fatalf("GetDoctor failed: %v", err)
	}
	if got.Name != "Dr. Asha Rao" || got.DepartmentID != 2 || got.DepartmentName != "Cardiology" {
		t.Fatalf("unexpected doctor: %+v", got)
	}

	_, err = client.GetDoctor(ctx, 99)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
