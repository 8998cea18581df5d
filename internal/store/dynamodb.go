package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-logr/logr"
)

// keyAttribute is the table's partition key.
const keyAttribute = "ResourceId"

// DynamoDBAPI is the subset of the DynamoDB client the store needs.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ Store = &DynamoDB{}

// DynamoDB is a Store backed by a single DynamoDB table.
type DynamoDB struct {
	client DynamoDBAPI
	table  string
	log    logr.Logger
}

func NewDynamoDB(log logr.Logger, client DynamoDBAPI, table string) *DynamoDB {
	return &DynamoDB{
		client: client,
		table:  table,
		log:    log,
	}
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoDB) Get(ctx context.Context, id string) (*Association, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		s.log.V(1).Info("no association", "resourceID", id)
		return nil, nil
	}

	var a Association
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &a, nil
}

func (s *DynamoDB) Put(ctx context.Context, a Association) error {
	if a.ResourceID == "" {
		return fmt.Errorf("store: put: resource id is required")
	}
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", a.ResourceID, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("store: put %s: %w", a.ResourceID, err)
	}
	s.log.V(1).Info("stored association", "resourceID", a.ResourceID, "alias", a.Alias)
	return nil
}

func (s *DynamoDB) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(id),
	}); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	s.log.V(1).Info("removed association", "resourceID", id)
	return nil
}
