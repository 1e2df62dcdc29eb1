package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ponydocs/application/ports"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errLockContended = errors.New("lock already held")

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client API, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// Acquire implements ports.Locker. It retries until the key is free, ctx is
// done or ttl has elapsed; an expired holder is taken over.
func (dl *DistributedLock) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	return dl.TryAcquireLock(ctx, key, uuid.NewString(), ttl, ttl)
}

// AcquireLock makes a single attempt at the lock for resourceName
func (dl *DistributedLock) AcquireLock(ctx context.Context, resourceName, ownerID string, lockDuration time.Duration) (*Lock, error) {
	now := dl.now()
	expiresAt := now.Add(lockDuration)
	lockID := fmt.Sprintf("%s_%d", ownerID, now.UnixNano())

	input := &dynamodb.PutItemInput{
		TableName: aws.String(dl.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: lockKey(resourceName)},
			"SK":        &types.AttributeValueMemberS{Value: "LOCK"},
			"LockID":    &types.AttributeValueMemberS{Value: lockID},
			"Owner":     &types.AttributeValueMemberS{Value: ownerID},
			"ExpiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.UnixMilli(), 10)},
			"TTL":       &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	}

	if _, err := dl.client.PutItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return nil, errLockContended
		}
		return nil, pkgerrors.NewDatabaseError("AcquireLock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resourceName),
		zap.String("lockID", lockID),
		zap.Duration("duration", lockDuration),
	)

	return &Lock{
		distributedLock: dl,
		resourceName:    resourceName,
		lockID:          lockID,
		ownerID:         ownerID,
		expiresAt:       expiresAt,
	}, nil
}

// TryAcquireLock retries AcquireLock with backoff until timeout
func (dl *DistributedLock) TryAcquireLock(ctx context.Context, resourceName, ownerID string, lockDuration, timeout time.Duration) (*Lock, error) {
	deadline := dl.now().Add(timeout)
	retryInterval := 50 * time.Millisecond

	for {
		lock, err := dl.AcquireLock(ctx, resourceName, ownerID, lockDuration)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, errLockContended) {
			return nil, err
		}
		if !dl.now().Before(deadline) {
			return nil, pkgerrors.NewLockHeldError(resourceName)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

// ReleaseLock deletes the lock record if this owner still holds it
func (dl *DistributedLock) ReleaseLock(ctx context.Context, resourceName, lockID, ownerID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockKey(resourceName)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Warn("Lock already released or taken over",
				zap.String("resource", resourceName),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return pkgerrors.NewDatabaseError("ReleaseLock", err)
	}
	return nil
}

// Lock represents an acquired distributed lock
type Lock struct {
	distributedLock *DistributedLock
	resourceName    string
	lockID          string
	ownerID         string
	expiresAt       time.Time
}

// Release releases the lock
func (l *Lock) Release(ctx context.Context) error {
	return l.distributedLock.ReleaseLock(ctx, l.resourceName, l.lockID, l.ownerID)
}

// IsExpired checks if the lock has expired
func (l *Lock) IsExpired() bool {
	return !l.distributedLock.now().Before(l.expiresAt)
}

func lockKey(resource string) string { return "LOCK#" + resource }
