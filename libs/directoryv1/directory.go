// Package directoryv1 is the gRPC contract of the doctor directory. Messages use the
// protobuf well-known types so both sides share one codec without generated stubs.
package directoryv1

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName     = "clinic.directory.v1.Directory"
	GetDoctorMethod = "/" + ServiceName + "/GetDoctor"
)

// Doctor is the subset of a doctor profile other services need.
type Doctor struct {
	ID             int64
	Name           string
	DepartmentID   int64
	DepartmentName string
	Specialization string
}

// DirectoryServer is implemented by the directory service.
type DirectoryServer interface {
	// GetDoctor returns status NotFound for unknown ids.
	GetDoctor(ctx context.Context, id int64) (Doctor, error)
}

func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDoctor", Handler: getDoctorHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinic/directory/v1/directory.proto",
}

func getDoctorHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		d, err := srv.(DirectoryServer).GetDoctor(ctx, req.(*wrapperspb.Int64Value).GetValue())
		if err != nil {
			return nil, err
		}
		return d.toStruct()
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDoctorMethod}
	return interceptor(ctx, in, info, call)
}

// Client calls the directory over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetDoctor(ctx context.Context, id int64, opts ...grpc.CallOption) (Doctor, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetDoctorMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return Doctor{}, err
	}
	return doctorFromStruct(out)
}

// ErrDoctorNotFound is the server side error for unknown ids.
var ErrDoctorNotFound = status.Error(codes.NotFound, "doctor not found")

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (d Doctor) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":              d.ID,
		"name":            d.Name,
		"department_id":   d.DepartmentID,
		"department_name": d.DepartmentName,
		"specialization":  d.Specialization,
	})
}

func doctorFromStruct(s *structpb.Struct) (Doctor, error) {
	f := s.GetFields()
	if f == nil {
		return Doctor{}, errors.New("directory: empty doctor message")
	}
	d := Doctor{
		ID:             int64(f["id"].GetNumberValue()),
		Name:           f["name"].GetStringValue(),
		DepartmentID:   int64(f["department_id"].GetNumberValue()),
		DepartmentName: f["department_name"].GetStringValue(),
		Specialization: f["specialization"].GetStringValue(),
	}
	if d.ID == 0 {
		return Doctor{}, fmt.Errorf("directory: doctor message without id")
	}
	return d, nil
}
