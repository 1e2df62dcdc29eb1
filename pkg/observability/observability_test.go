package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("ponydocs_test")

	m.CacheHit("nav")
	m.CacheHit("nav")
	m.CacheMiss("toc")
	m.VersionConflict()
	m.LinksReplaced(3)
	m.Resolution("redirect")
	m.CacheRebuild("nav", 5*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("nav", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("toc", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.linksReplaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("redirect")))
}

func TestMetrics_HandlerExposesRegistry(t *testing.T) {
	m := NewMetrics("ponydocs_test")
	m.VersionConflict()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ponydocs_test_version_conflicts_total 1")
}

type MockCloudWatch struct {
	mock.Mock
}

func (m *MockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	return &cloudwatch.PutMetricDataOutput{}, args.Error(0)
}

func TestCloudWatchSink_FlushAggregates(t *testing.T) {
	// Arrange
	client := new(MockCloudWatch)
	sink := NewCloudWatchSink(client, "PonyDocs/test", zap.NewNop())
	sink.CacheHit("nav")
	sink.CacheHit("nav")
	sink.VersionConflict()

	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		if aws.ToString(in.Namespace) != "PonyDocs/test" || len(in.MetricData) != 2 {
			return false
		}
		for _, d := range in.MetricData {
			if aws.ToString(d.MetricName) == "CacheHit" && aws.ToFloat64(d.Value) != 2 {
				return false
			}
		}
		return true
	})).Return(nil).Once()

	// Act
	err := sink.Flush(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, sink.Pending())
	require.NoError(t, sink.Flush(context.Background()))
	client.AssertExpectations(t)
}

func TestFanout_ForwardsToEverySink(t *testing.T) {
	a := NewMetrics("fan_a")
	b := NewMetrics("fan_b")

	Fanout{a, b}.VersionConflict()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.conflicts))
}

func TestTracer_DisabledRunsFunction(t *testing.T) {
	var tracer *Tracer
	called := false

	err := tracer.Trace(context.Background(), "noop", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, NewTracer("ponydocs", false).Enabled())
}
