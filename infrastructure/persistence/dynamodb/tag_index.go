package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// tagItem is one tagged page under a tag partition
type tagItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Title      string `dynamodbav:"Title"`
	SortKey    string `dynamodbav:"SortKey"`
}

// pageTagsItem records the tags a page currently carries
type pageTagsItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	Title      string   `dynamodbav:"Title"`
	SortKey    string   `dynamodbav:"SortKey"`
	Tags       []string `dynamodbav:"Tags"`
}

// TagIndex implements ports.TagIndex using DynamoDB
type TagIndex struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewTagIndex creates a new TagIndex
func NewTagIndex(client API, tableName string, logger *zap.Logger) *TagIndex {
	return &TagIndex{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// FindPagesByVersionTag queries the tag partition, narrowing by sort key prefix
func (x *TagIndex) FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error) {
	tag := valueobjects.VersionTag{Product: product, Version: version}.String()

	keyCond := expression.Key("PK").Equal(expression.Value(tagKey(tag)))
	if sortKeyPrefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(strings.ToUpper(sortKeyPrefix)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(x.client, &dynamodb.QueryInput{
		TableName:                 aws.String(x.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var titles []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("FindPagesByVersionTag", err)
		}
		var items []tagItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tag items: %w", err)
		}
		for _, item := range items {
			titles = append(titles, item.Title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// SetPageTags diffs the page's stored tags against tags and writes the
// difference in transactions
func (x *TagIndex) SetPageTags(ctx context.Context, title, sortKey string, tags []valueobjects.VersionTag) error {
	current, err := x.load(ctx, title)
	if err != nil {
		return err
	}

	next := make(map[string]bool, len(tags))
	for _, t := range tags {
		next[t.String()] = true
	}
	prev := make(map[string]bool)
	prevSortKey := sortKey
	if current != nil {
		prevSortKey = current.SortKey
		for _, t := range current.Tags {
			prev[t] = true
		}
	}

	var ops []types.TransactWriteItem
	for tag := range prev {
		if next[tag] && strings.EqualFold(prevSortKey, sortKey) {
			continue
		}
		ops = append(ops, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(x.tableName),
			Key:       itemKey(tagKey(tag), tagSortKey(prevSortKey, title)),
		}})
	}
	for tag := range next {
		if prev[tag] && strings.EqualFold(prevSortKey, sortKey) {
			continue
		}
		av, err := attributevalue.MarshalMap(tagItem{
			PK:         tagKey(tag),
			SK:         tagSortKey(sortKey, title),
			EntityType: entityTag,
			Title:      title,
			SortKey:    strings.ToUpper(sortKey),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal tag item: %w", err)
		}
		ops = append(ops, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(x.tableName),
			Item:      av,
		}})
	}

	if len(next) == 0 {
		if current != nil {
			ops = append(ops, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(x.tableName),
				Key:       itemKey(pageKey(title), entityTags),
			}})
		}
	} else {
		names := make([]string, 0, len(next))
		for tag := range next {
			names = append(names, tag)
		}
		sort.Strings(names)
		av, err := attributevalue.MarshalMap(pageTagsItem{
			PK:         pageKey(title),
			SK:         entityTags,
			EntityType: entityTags,
			Title:      title,
			SortKey:    strings.ToUpper(sortKey),
			Tags:       names,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal page tags: %w", err)
		}
		ops = append(ops, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(x.tableName),
			Item:      av,
		}})
	}

	if err := transactWrite(ctx, x.client, ops); err != nil {
		return pkgerrors.NewDatabaseError("SetPageTags", err)
	}

	x.logger.Debug("Page tags indexed",
		zap.String("title", title),
		zap.Int("tags", len(next)),
		zap.Int("writes", len(ops)),
	)
	return nil
}

// TagsOf returns the tags of a page
func (x *TagIndex) TagsOf(ctx context.Context, title string) ([]valueobjects.VersionTag, error) {
	current, err := x.load(ctx, title)
	if err != nil || current == nil {
		return nil, err
	}

	tags := make([]valueobjects.VersionTag, 0, len(current.Tags))
	for _, raw := range current.Tags {
		parts := strings.SplitN(strings.TrimPrefix(raw, "V:"), ":", 2)
		if len(parts) != 2 {
			continue
		}
		tags = append(tags, valueobjects.VersionTag{Product: parts[0], Version: parts[1]})
	}
	return tags, nil
}

// RemovePage drops a page from the index
func (x *TagIndex) RemovePage(ctx context.Context, title string) error {
	return x.SetPageTags(ctx, title, "", nil)
}

func (x *TagIndex) load(ctx context.Context, title string) (*pageTagsItem, error) {
	out, err := x.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(x.tableName),
		Key:            itemKey(pageKey(title), entityTags),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetPageTags", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item pageTagsItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page tags: %w", err)
	}
	return &item, nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// transactWrite runs ops in chunks of the transaction item limit. Each chunk
// is atomic; a failing chunk stops the remaining ones.
func transactWrite(ctx context.Context, client API, ops []types.TransactWriteItem) error {
	for start := 0; start < len(ops); start += maxTransactItems {
		end := start + maxTransactItems
		if end > len(ops) {
			end = len(ops)
		}
		if _, err := client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: ops[start:end],
		}); err != nil {
			return err
		}
	}
	return nil
}
