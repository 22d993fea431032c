package inference

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthServer reports each model as a gRPC health service ("fertility", "irrigation", "crop").
// The overall service "" is SERVING only when every model is loaded.
func NewHealthServer(r *Registry) *health.Server {
	hs := health.NewServer()
	for k, ok := range r.Status() {
		hs.SetServingStatus(string(k), servingStatus(ok))
	}
	hs.SetServingStatus("", servingStatus(r.AllLoaded()))
	return hs
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
