package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/01cderx/Chat-ai/internal/domain"
)

const (
	pkPrefixUser = "USER#"
	skProfile    = "PROFILE"
	skPrefixTurn = "TURN#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a single DynamoDB table holding user profile rows and turn
// rows per user partition.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// userPK returns the partition key for a user.
func userPK(userID string) string {
	return pkPrefixUser + userID
}

// turnSK returns the sort key for a turn at the given creation time.
func turnSK(ts time.Time) string {
	return skPrefixTurn + ts.UTC().Format(time.RFC3339Nano)
}

// FindUser reports whether a profile row exists for the user.
func (c *Client) FindUser(ctx context.Context, userID string) (bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("repository: FindUser get item: %w", err)
	}
	return out != nil && len(out.Item) > 0, nil
}

// InsertUser writes the profile row for a user. A row that already exists is
// left untouched, making repeated registration a no-op.
func (c *Client) InsertUser(ctx context.Context, user domain.UserIdentity) error {
	if user.UserID == "" {
		return errors.New("repository: InsertUser: user ID is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                userItem(user),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("repository: InsertUser: %w", err)
	}
	return nil
}

// InsertTurn persists a turn. The store assigns CreatedAt; the caller's value
// is ignored.
func (c *Client) InsertTurn(ctx context.Context, turn domain.Turn) error {
	if turn.UserID == "" {
		return errors.New("repository: InsertTurn: user ID is required")
	}
	turn.CreatedAt = time.Now().UTC()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                turnItem(turn),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: InsertTurn: %w", err)
	}
	return nil
}

// ListTurns queries TURN# rows for a user. With limit > 0 it reads newest
// first so LIMIT favors the most recent turns, then reverses to chronological
// order; limit <= 0 reads everything in chronological order directly.
func (c *Client) ListTurns(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
		},
	}
	if limit > 0 {
		in.ScanIndexForward = aws.Bool(false)
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: ListTurns query: %w", err)
	}

	turns := make([]domain.Turn, 0, len(out.Items))
	for _, item := range out.Items {
		turn, err := itemToTurn(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListTurns unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}
	if limit > 0 {
		for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
			turns[i], turns[j] = turns[j], turns[i]
		}
	}
	return turns, nil
}

func userItem(user domain.UserIdentity) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: userPK(user.UserID)},
		"SK":        &types.AttributeValueMemberS{Value: skProfile},
		"userId":    &types.AttributeValueMemberS{Value: user.UserID},
		"name":      &types.AttributeValueMemberS{Value: user.Name},
		"email":     &types.AttributeValueMemberS{Value: user.Email},
		"createdAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
}

func turnItem(turn domain.Turn) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: userPK(turn.UserID)},
		"SK":        &types.AttributeValueMemberS{Value: turnSK(turn.CreatedAt)},
		"userId":    &types.AttributeValueMemberS{Value: turn.UserID},
		"message":   &types.AttributeValueMemberS{Value: turn.Message},
		"reply":     &types.AttributeValueMemberS{Value: turn.Reply},
		"createdAt": &types.AttributeValueMemberS{Value: turn.CreatedAt.Format(time.RFC3339Nano)},
	}
}

// itemToTurn converts a DynamoDB attribute map to a Turn.
func itemToTurn(item map[string]types.AttributeValue) (domain.Turn, error) {
	userID, err := strAttr(item, "userId")
	if err != nil {
		return domain.Turn{}, err
	}
	message, err := strAttr(item, "message")
	if err != nil {
		return domain.Turn{}, err
	}
	reply, _ := strAttr(item, "reply") // allow empty
	createdAtRaw, err := strAttr(item, "createdAt")
	if err != nil {
		return domain.Turn{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtRaw)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("repository: parse createdAt: %w", err)
	}

	return domain.Turn{
		UserID:    userID,
		Message:   message,
		Reply:     reply,
		CreatedAt: createdAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
