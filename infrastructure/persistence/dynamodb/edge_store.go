package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// edgeItem represents the DynamoDB item structure for a link edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	FromTitle  string `dynamodbav:"FromTitle"`
	ToTitle    string `dynamodbav:"ToTitle"`
}

// EdgeStore implements ports.EdgeStore using DynamoDB. Reverse lookups
// go through a GSI keyed on the target.
type EdgeStore struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewEdgeStore creates a new EdgeStore
func NewEdgeStore(client API, tableName, indexName string, logger *zap.Logger) *EdgeStore {
	return &EdgeStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// ReplaceEdges diffs the stored edges of fromTitles against edges and
// writes only the difference
func (s *EdgeStore) ReplaceEdges(ctx context.Context, fromTitles []string, edges []valueobjects.LinkEdge) error {
	existing := make(map[valueobjects.LinkEdge]bool)
	for _, from := range fromTitles {
		current, err := s.EdgesFrom(ctx, from)
		if err != nil {
			return err
		}
		for _, e := range current {
			existing[e] = true
		}
	}

	wanted := make(map[valueobjects.LinkEdge]bool, len(edges))
	for _, e := range edges {
		wanted[e] = true
	}

	var ops []types.TransactWriteItem
	for e := range existing {
		if wanted[e] {
			continue
		}
		ops = append(ops, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(s.tableName),
			Key:       itemKey(linkKey(e.FromTitle), linkTargetKey(e.ToTitle)),
		}})
	}
	for e := range wanted {
		if existing[e] {
			continue
		}
		av, err := attributevalue.MarshalMap(edgeItem{
			PK:         linkKey(e.FromTitle),
			SK:         linkTargetKey(e.ToTitle),
			GSI1PK:     linkReverseKey(e.ToTitle),
			GSI1SK:     linkSourceKey(e.FromTitle),
			EntityType: entityLink,
			FromTitle:  e.FromTitle,
			ToTitle:    e.ToTitle,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal edge: %w", err)
		}
		ops = append(ops, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item:      av,
		}})
	}

	if err := transactWrite(ctx, s.client, ops); err != nil {
		return pkgerrors.NewDatabaseError("ReplaceEdges", err)
	}

	s.logger.Debug("Link edges replaced",
		zap.Strings("from", fromTitles),
		zap.Int("edges", len(wanted)),
		zap.Int("writes", len(ops)),
	)
	return nil
}

// EdgesFrom retrieves the edges leaving from
func (s *EdgeStore) EdgesFrom(ctx context.Context, from string) ([]valueobjects.LinkEdge, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(linkKey(from)))
	edges, err := s.query(ctx, keyCond, "")
	if err != nil {
		return nil, err
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ToTitle < edges[j].ToTitle })
	return edges, nil
}

// EdgesTo retrieves the edges pointing at to
func (s *EdgeStore) EdgesTo(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(linkReverseKey(to)))
	edges, err := s.query(ctx, keyCond, s.indexName)
	if err != nil {
		return nil, err
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].FromTitle < edges[j].FromTitle })
	return edges, nil
}

func (s *EdgeStore) query(ctx context.Context, keyCond expression.KeyConditionBuilder, index string) ([]valueobjects.LinkEdge, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build edge query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	edges := []valueobjects.LinkEdge{}
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("QueryEdges", err)
		}
		var items []edgeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
		}
		for _, item := range items {
			edges = append(edges, valueobjects.LinkEdge{FromTitle: item.FromTitle, ToTitle: item.ToTitle})
		}
	}
	return edges, nil
}
