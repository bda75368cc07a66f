package service

import (
	"github.com/okian/admitly/internal/domain/reference"
	"github.com/okian/admitly/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending assessments.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many assessment ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReference sets the reference statistics the estimator uses.
func WithReference(ref reference.Statistics) Option {
	return func(s *Service) {
		s.ref = ref
	}
}

// WithWeights sets the default composite weights.
func WithWeights(test, gpa float64) Option {
	return func(s *Service) {
		s.weightTest, s.weightGPA = test, gpa
	}
}

// WithDefaultApplicants sets the applicant pool used in descriptions.
func WithDefaultApplicants(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultApplicants = n
		}
	}
}

// WithAssessmentLog persists scored assessments. Without it the service
// keeps them in memory.
func WithAssessmentLog(l AssessmentLog) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}
