package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ponydocs/domain/core/entities"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// pageItem represents the DynamoDB item structure for a page
type pageItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	Title       string `dynamodbav:"Title"`
	Content     string `dynamodbav:"Content"`
	EditSummary string `dynamodbav:"EditSummary"`
	Revision    int    `dynamodbav:"Revision"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

// PageStore implements ports.PageStore using DynamoDB
type PageStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewPageStore creates a new PageStore
func NewPageStore(client API, tableName string, logger *zap.Logger) *PageStore {
	return &PageStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (s *PageStore) key(title string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pageKey(title)},
		"SK": &types.AttributeValueMemberS{Value: entityPage},
	}
}

// Get retrieves a page by title
func (s *PageStore) Get(ctx context.Context, title string) (*entities.Page, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(title),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetPage", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewPageNotFoundError(title)
	}

	var item pageItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

	return &entities.Page{
		Title:       item.Title,
		Content:     item.Content,
		EditSummary: item.EditSummary,
		Revision:    item.Revision,
		UpdatedAt:   updatedAt,
	}, nil
}

// Exists reports whether a page exists
func (s *PageStore) Exists(ctx context.Context, title string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  s.key(title),
		ProjectionExpression: aws.String("PK"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, pkgerrors.NewDatabaseError("PageExists", err)
	}
	return out.Item != nil, nil
}

// Save upserts a page and bumps its revision. isNew adds an
// attribute_not_exists condition.
func (s *PageStore) Save(ctx context.Context, title, content, summary string, isNew bool) error {
	update := expression.
		Set(expression.Name("EntityType"), expression.Value(entityPage)).
		Set(expression.Name("Title"), expression.Value(title)).
		Set(expression.Name("Content"), expression.Value(content)).
		Set(expression.Name("EditSummary"), expression.Value(summary)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano))).
		Add(expression.Name("Revision"), expression.Value(1))

	builder := expression.NewBuilder().WithUpdate(update)
	if isNew {
		builder = builder.WithCondition(expression.AttributeNotExists(expression.Name("PK")))
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build page update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(title),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return pkgerrors.NewConflictError("page already exists: " + title)
		}
		return pkgerrors.NewDatabaseError("SavePage", err)
	}

	s.logger.Debug("Page saved",
		zap.String("title", title),
		zap.Bool("isNew", isNew),
		zap.Int("size", len(content)),
	)
	return nil
}

// Delete removes a page
func (s *PageStore) Delete(ctx context.Context, title string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.key(title),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return pkgerrors.NewPageNotFoundError(title)
		}
		return pkgerrors.NewDatabaseError("DeletePage", err)
	}
	return nil
}

// ListTitles scans for page titles starting with prefix
func (s *PageStore) ListTitles(ctx context.Context, prefix string) ([]string, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityPage))
	if prefix != "" {
		filter = filter.And(expression.Name("Title").BeginsWith(prefix))
	}
	expr, err := expression.NewBuilder().
		WithFilter(filter).
		WithProjection(expression.NamesList(expression.Name("Title"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build page scan: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var titles []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("ListTitles", err)
		}
		var items []pageItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal titles: %w", err)
		}
		for _, item := range items {
			titles = append(titles, item.Title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}
