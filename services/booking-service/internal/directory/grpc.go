package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/directoryv1"
	"github.com/md-rashed-zaman/clinicslots/libs/grpcx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
	"google.golang.org/grpc"
)

// GRPC looks doctors up in the directory service and caches hits for ttl.
type GRPC struct {
	conn   *grpc.ClientConn
	client *directoryv1.Client
	cache  *cache
}

// Dial connects to the directory at addr. When addr is empty or unreachable the
// fallback is returned instead, mirroring how the service degrades in local runs.
func Dial(ctx context.Context, logger *slog.Logger, addr string, ttl time.Duration, fallback scheduling.Directory) (scheduling.Directory, func() error, error) {
	noop := func() error { return nil }
	if addr == "" {
		return fallback, noop, nil
	}
	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		if fallback == nil {
			return nil, noop, err
		}
		logger.Warn("directory unavailable, using static roster", "addr", addr, "err", err)
		return fallback, noop, nil
	}
	logger.Info("grpc directory enabled", "addr", addr)
	g := NewGRPC(conn, ttl)
	return g, conn.Close, nil
}

func NewGRPC(conn *grpc.ClientConn, ttl time.Duration) *GRPC {
	return &GRPC{conn: conn, client: directoryv1.NewClient(conn), cache: newCache(ttl, time.Now)}
}

func (g *GRPC) Doctor(ctx context.Context, id int64) (model.Doctor, error) {
	if d, ok := g.cache.get(id); ok {
		return d, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	resp, err := g.client.GetDoctor(ctx, id)
	if err != nil {
		if directoryv1.IsNotFound(err) {
			return model.Doctor{}, scheduling.ErrNoRecord
		}
		return model.Doctor{}, err
	}
	d := model.Doctor{
		ID:             resp.ID,
		Name:           resp.Name,
		DepartmentID:   resp.DepartmentID,
		DepartmentName: resp.DepartmentName,
	}
	g.cache.put(d)
	return d, nil
}
