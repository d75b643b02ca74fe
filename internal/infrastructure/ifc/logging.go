package ifc

import (
	"context"
	"time"

	"github.com/arx-os/ifcgeom/internal/common/logger"
)

// LoggingService decorates a Service with timing and outcome logs.
type LoggingService struct {
	inner Service
	log   *logger.Logger
}

// NewLoggingService wraps inner. A nil log uses the package-level
// default logger.
func NewLoggingService(inner Service, log *logger.Logger) *LoggingService {
	if log == nil {
		log = logger.New(logger.INFO)
	}
	return &LoggingService{inner: inner, log: log}
}

// Process delegates to the inner service and logs a summary.
func (s *LoggingService) Process(ctx context.Context, data []byte) (*ProcessResult, error) {
	s.log.Info("ifc: processing %d bytes", len(data))
	start := time.Now()

	result, err := s.inner.Process(ctx, data)
	if err != nil {
		s.log.Error("ifc: processing failed after %v: %v", time.Since(start), err)
		return nil, err
	}

	c := result.Run.Completion
	s.log.Info("ifc: processed %d/%d elements in %v (schema %s, unit scale %g; %d decode failures, %d process failures, %d outliers)",
		len(result.Elements), c.TotalCandidates, time.Since(start),
		result.FileInfo.Schema, result.UnitScale,
		c.DecodeFailed, c.ProcessFailed, c.OutlierFiltered)
	return result, nil
}

// ProcessInstanced delegates to the inner service and logs a summary.
func (s *LoggingService) ProcessInstanced(ctx context.Context, data []byte) (*InstancedResult, error) {
	s.log.Info("ifc: processing %d bytes (instanced mode)", len(data))
	start := time.Now()

	result, err := s.inner.ProcessInstanced(ctx, data)
	if err != nil {
		s.log.Error("ifc: instanced processing failed after %v: %v", time.Since(start), err)
		return nil, err
	}

	s.log.Info("ifc: %d shared geometries, %d instances in %v",
		len(result.Instanced.Geometries), result.Instanced.InstanceCount(), time.Since(start))
	return result, nil
}
