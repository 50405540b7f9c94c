package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/01cderx/Chat-ai/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func makeTurnItem(userID, message, reply string, createdAt time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK":        &types.AttributeValueMemberS{Value: turnSK(createdAt)},
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"message":   &types.AttributeValueMemberS{Value: message},
		"reply":     &types.AttributeValueMemberS{Value: reply},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt.UTC().Format(time.RFC3339Nano)},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)
	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestFindUser_Found(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: "USER#ada_x_io"},
		"SK":     &types.AttributeValueMemberS{Value: skProfile},
		"userId": &types.AttributeValueMemberS{Value: "ada_x_io"},
	}}}
	c := mustNewClient(t, db)

	found, err := c.FindUser(context.Background(), "ada_x_io")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, db.lastGetInput)
}

func TestFindUser_Absent(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewClient(t, db)

	found, err := c.FindUser(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindUser_GetItemError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("boom")}
	c := mustNewClient(t, db)

	_, err := c.FindUser(context.Background(), "ada_x_io")
	require.Error(t, err)
	require.Contains(t, err.Error(), "FindUser")
}

func TestInsertUser_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.InsertUser(context.Background(), domain.UserIdentity{UserID: "ada_x_io", Name: "Ada", Email: "ada@x.io"})
	require.NoError(t, err)
	require.NotNil(t, db.lastPutInput)
	require.NotNil(t, db.lastPutInput.ConditionExpression)

	pk, ok := db.lastPutInput.Item["PK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	require.Equal(t, "USER#ada_x_io", pk.Value)
}

func TestInsertUser_AlreadyExistsIsNoOp(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	c := mustNewClient(t, db)

	err := c.InsertUser(context.Background(), domain.UserIdentity{UserID: "ada_x_io"})
	require.NoError(t, err, "conditional check failure means the row exists; repeat registration is a no-op")
}

func TestInsertUser_RequiresUserID(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.InsertUser(context.Background(), domain.UserIdentity{})
	require.Error(t, err)
}

func TestInsertTurn_AssignsCreatedAt(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	before := time.Now().UTC()
	err := c.InsertTurn(context.Background(), domain.Turn{UserID: "ada_x_io", Message: "hi", Reply: "hello"})
	require.NoError(t, err)

	createdAtAttr, ok := db.lastPutInput.Item["createdAt"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtAttr.Value)
	require.NoError(t, err)
	require.False(t, createdAt.Before(before), "store must assign creation time at write")
}

func TestInsertTurn_PutItemError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("throttled")}
	c := mustNewClient(t, db)

	err := c.InsertTurn(context.Background(), domain.Turn{UserID: "ada_x_io", Message: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "InsertTurn")
}

func TestListTurns_BoundedReadsNewestFirstThenReverses(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			// newest first, as DynamoDB returns with ScanIndexForward=false
			Items: []map[string]types.AttributeValue{
				makeTurnItem("ada_x_io", "third", "r3", base.Add(2*time.Second)),
				makeTurnItem("ada_x_io", "second", "r2", base.Add(time.Second)),
				makeTurnItem("ada_x_io", "first", "r1", base),
			},
		},
	}
	c := mustNewClient(t, db)

	turns, err := c.ListTurns(context.Background(), "ada_x_io", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	require.Equal(t, "first", turns[0].Message)
	require.Equal(t, "second", turns[1].Message)
	require.Equal(t, "third", turns[2].Message)

	require.NotNil(t, db.lastQueryIn.ScanIndexForward)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
	require.NotNil(t, db.lastQueryIn.Limit)
	require.EqualValues(t, 10, *db.lastQueryIn.Limit)
}

func TestListTurns_UnboundedReadsChronologically(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				makeTurnItem("ada_x_io", "first", "r1", base),
				makeTurnItem("ada_x_io", "second", "r2", base.Add(time.Second)),
			},
		},
	}
	c := mustNewClient(t, db)

	turns, err := c.ListTurns(context.Background(), "ada_x_io", 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, "first", turns[0].Message)
	require.Nil(t, db.lastQueryIn.Limit)
	require.Nil(t, db.lastQueryIn.ScanIndexForward)
}

func TestListTurns_QueryError(t *testing.T) {
	db := &fakeDynamo{queryErr: errors.New("boom")}
	c := mustNewClient(t, db)

	_, err := c.ListTurns(context.Background(), "ada_x_io", 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ListTurns")
}

func TestListTurns_MalformedItem(t *testing.T) {
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{
					"PK": &types.AttributeValueMemberS{Value: "USER#ada_x_io"},
					"SK": &types.AttributeValueMemberS{Value: turnSK(time.Now())},
					// message and createdAt missing
				},
			},
		},
	}
	c := mustNewClient(t, db)

	_, err := c.ListTurns(context.Background(), "ada_x_io", 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}
