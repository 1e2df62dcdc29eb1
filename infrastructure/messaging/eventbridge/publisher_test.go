package eventbridge

import (
	"context"
	"testing"
	"time"

	"ponydocs/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventBridge struct {
	mock.Mock
}

func (m *MockEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventbridge.PutEventsOutput), args.Error(1)
}

func TestPublisher_PublishBatchChunks(t *testing.T) {
	// Arrange
	client := new(MockEventBridge)
	publisher := NewPublisher(client, "docs-bus", zap.NewNop())

	var batch []events.DomainEvent
	for i := 0; i < 12; i++ {
		batch = append(batch, events.NewTopicSaved("Documentation:Acme:Guide:Intro:1.0", "Acme", "Guide", "Intro", []string{"1.0"}, time.Now()))
	}

	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 2
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	// Act
	err := publisher.PublishBatch(context.Background(), batch)

	// Assert
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPublisher_FailedEntries(t *testing.T) {
	// Arrange
	client := new(MockEventBridge)
	publisher := NewPublisher(client, "docs-bus", zap.NewNop())

	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return aws.ToString(in.Entries[0].DetailType) == events.TypeVersionListSaved &&
			aws.ToString(in.Entries[0].Source) == Source
	})).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil)

	// Act
	err := publisher.Publish(context.Background(), events.NewVersionListSaved("Documentation:Acme:Versions", "Acme", time.Now()))

	// Assert
	assert.Error(t, err)
	client.AssertExpectations(t)
}
