package server

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"time"
)

// observe records the request counter and duration of one handled request.
// Unregistered service names are folded into "unknown" to bound the number
// of series.
func (s *RPCServer) observe(service string, resp *common.Response, start time.Time) {
	if !s.config.Metrics {
		return
	}

	if _, ok := s.services.Load(service); !ok {
		service = "unknown"
	}
	status := "ok"
	if resp.Err != nil {
		status = "ex"
	}

	metrics.GetOrCreateCounter(fmt.Sprintf(`drpc_requests_total{service=%q,status=%q}`, service, status)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`drpc_request_duration_seconds{service=%q}`, service)).UpdateDuration(start)
}
