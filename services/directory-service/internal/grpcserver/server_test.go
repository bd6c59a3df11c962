package grpcserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/directoryv1"
	"github.com/md-rashed-zaman/clinicslots/libs/grpcx"
	"github.com/md-rashed-zaman/clinicslots/services/directory-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type fakeDoctors map[int64]storage.Doctor

func (f fakeDoctors) GetDoctor(_ context.Context, id int64) (storage.Doctor, error) {
	d, ok := f[id]
	if !ok {
		return storage.Doctor{}, storage.ErrNotFound
	}
	return d, nil
}

func TestGetDoctor(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpcx.NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Register(srv, fakeDoctors{
		101: {ID: 101, Name: "Dr. Asha Menon", DepartmentID: 1, DepartmentName: "Cardiology", Specialization: "Cardiologist"},
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
	client := directoryv1.NewClient(conn)

	d, err := client.GetDoctor(ctx, 101)
	if err != nil {
		t.Fatalf("GetDoctor failed: %v", err)
	}
	if d.Name != "Dr. Asha Menon" || d.DepartmentName != "Cardiology" {
		t.Fatalf("unexpected doctor %+v", d)
	}
	if _, err := client.GetDoctor(ctx, 5); !directoryv1.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
