package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerCall is the PutMetricData datum limit
const maxDatumsPerCall = 1000

// CloudWatchAPI is the slice of the CloudWatch client the sink uses
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type metricKey struct {
	name string
	kind string
}

// CloudWatchSink accumulates engine counters and flushes them as custom
// metrics
type CloudWatchSink struct {
	client    CloudWatchAPI
	namespace string
	logger    *zap.Logger

	mu     sync.Mutex
	counts map[metricKey]float64
}

// NewCloudWatchSink creates a sink publishing under namespace
func NewCloudWatchSink(client CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatchSink {
	return &CloudWatchSink{
		client:    client,
		namespace: namespace,
		logger:    logger,
		counts:    make(map[metricKey]float64),
	}
}

func (s *CloudWatchSink) add(name, kind string, v float64) {
	s.mu.Lock()
	s.counts[metricKey{name: name, kind: kind}] += v
	s.mu.Unlock()
}

func (s *CloudWatchSink) CacheHit(kind string)  { s.add("CacheHit", kind, 1) }
func (s *CloudWatchSink) CacheMiss(kind string) { s.add("CacheMiss", kind, 1) }

func (s *CloudWatchSink) CacheRebuild(kind string, d time.Duration, err error) {
	s.add("CacheRebuild", kind, 1)
	if err != nil {
		s.add("CacheRebuildError", kind, 1)
	}
}

func (s *CloudWatchSink) LinksReplaced(count int) { s.add("LinkEdgesWritten", "", float64(count)) }
func (s *CloudWatchSink) VersionConflict()        { s.add("VersionConflict", "", 1) }
func (s *CloudWatchSink) Resolution(kind string)  { s.add("Resolution", kind, 1) }

// Pending returns the number of buffered datums
func (s *CloudWatchSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}

// Flush sends and resets the buffered counters. On failure the counters
// are dropped and the error returned.
func (s *CloudWatchSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	counts := s.counts
	s.counts = make(map[metricKey]float64)
	s.mu.Unlock()

	if len(counts) == 0 {
		return nil
	}

	now := time.Now()
	data := make([]types.MetricDatum, 0, len(counts))
	for k, v := range counts {
		datum := types.MetricDatum{
			MetricName: aws.String(k.name),
			Value:      aws.Float64(v),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		}
		if k.kind != "" {
			datum.Dimensions = []types.Dimension{{Name: aws.String("Kind"), Value: aws.String(k.kind)}}
		}
		data = append(data, datum)
	}

	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(data) {
			end = len(data)
		}
		if _, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(s.namespace),
			MetricData: data[start:end],
		}); err != nil {
			return err
		}
	}

	s.logger.Debug("Metrics flushed to CloudWatch",
		zap.String("namespace", s.namespace),
		zap.Int("datums", len(data)),
	)
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more
func (s *CloudWatchSink) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Final metrics flush failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Warn("Metrics flush failed", zap.Error(err))
			}
		}
	}
}
