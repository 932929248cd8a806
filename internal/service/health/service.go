package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// ServiceName is the name reported over grpc.health.v1 besides "".
const ServiceName = "tinderito"

const pingTimeout = 2 * time.Second

// Service reports liveness and store/cache readiness over HTTP and gRPC.
type Service struct {
	appCtx *app.AppContext
	grpc   *grpchealth.Server
}

// NewHealthService creates a health service. gRPC status starts NOT_SERVING.
func NewHealthService(appCtx *app.AppContext) *Service {
	s := &Service{appCtx: appCtx, grpc: grpchealth.NewServer()}
	s.SetServing(false)
	return s
}

// Check pings the database and Redis. The map holds one entry per
// dependency ("ok" or the failure); err is the first failure.
func (s *Service) Check(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	report := map[string]string{"db": "ok", "redis": "ok"}
	var first error

	sqlDB, err := s.appCtx.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		report["db"] = err.Error()
		first = err
	}

	if err := s.appCtx.RedisCache.Ping(ctx); err != nil {
		report["redis"] = err.Error()
		if first == nil {
			first = err
		}
	}

	return report, first
}

// SetServing flips the gRPC health status of the server and ServiceName.
func (s *Service) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.grpc.SetServingStatus("", status)
	s.grpc.SetServingStatus(ServiceName, status)
}

// Shutdown marks everything NOT_SERVING and ignores later updates.
func (s *Service) Shutdown() {
	s.grpc.Shutdown()
}

// Register attaches GET /healthz
func (s *Service) Register(router chi.Router) {
	router.Get("/healthz", s.healthz)
}

// RegisterGRPC attaches grpc.health.v1.Health
func (s *Service) RegisterGRPC(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s.grpc)
}

func (s *Service) healthz(w http.ResponseWriter, req *http.Request) {
	report, err := s.Check(req.Context())
	if err != nil {
		s.appCtx.Logger.WarnContext(req.Context(), "health check failed", "err", err)
		respond.JSON(w, http.StatusServiceUnavailable, respond.M{"status": "error", "checks": report})
		return
	}
	respond.OK(w, respond.M{"checks": report})
}
