// Package dynamodb implements the engine's storage ports on a single
// DynamoDB table.
//
// Item layout:
//
//	PAGE#{title}       PAGE            page body
//	PAGE#{title}       TAGS            the page's current version tags
//	TAG#V:{p}:{v}      {SORTKEY}#{title}  one row per tagged page
//	LINK#{from}        TO#{to}         link edge; GSI1 holds the reverse key
//	LOCK#{key}         LOCK            advisory writer lock
package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	entityPage = "PAGE"
	entityTags = "TAGS"
	entityTag  = "TAG"
	entityLink = "LINK"

	// maxTransactItems is DynamoDB's per-transaction item limit
	maxTransactItems = 100
)

// API is the slice of the DynamoDB client the adapters use
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

func pageKey(title string) string { return "PAGE#" + title }

func tagKey(tag string) string { return "TAG#" + tag }

func tagSortKey(sortKey, title string) string {
	return fmt.Sprintf("%s#%s", strings.ToUpper(sortKey), title)
}

func linkKey(from string) string { return "LINK#" + from }

func linkTargetKey(to string) string { return "TO#" + to }

func linkReverseKey(to string) string { return "LINKTO#" + to }

func linkSourceKey(from string) string { return "FROM#" + from }
