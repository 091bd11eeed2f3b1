package core

import "go.uber.org/zap"

type segmentConfig struct {
	logger  *zap.Logger
	metrics *Metrics
}

type Option func(*segmentConfig)

func WithLogger(logger *zap.Logger) Option {
	return func(c *segmentConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *segmentConfig) {
		c.metrics = metrics
	}
}

func defaultSegmentConfig() *segmentConfig {
	return &segmentConfig{
		logger: zap.NewNop(),
	}
}
