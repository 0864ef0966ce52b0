package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pankaj9057/planning-poker/logging"
)

// PlayerStorage persists player records keyed by the stable player id.
// Put is an upsert: the same record is re-parented into another game rather
// than duplicated. ClearVote is idempotent so a partially failed round reset
// can be retried safely.
type PlayerStorage interface {
	Get(ctx context.Context, id string) (*Player, error)
	Put(ctx context.Context, player *Player) error
	SetVote(ctx context.Context, id, gameID, value string) error
	ClearVote(ctx context.Context, id string) error
	ListByGame(ctx context.Context, gameID string) ([]*Player, error)
}

type DynamoPlayerStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoPlayerStorage) Get(ctx context.Context, id string) (*Player, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("PLAYER: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("PLAYER: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrPlayerNotFound
	}

	var player *Player
	if err := attributevalue.UnmarshalMap(out.Item, &player); err != nil {
		logging.Log.Errorf("PLAYER: failed to unmarshal result: %v", err)
		return nil, err
	}
	return player, nil
}

func (s *DynamoPlayerStorage) Put(ctx context.Context, player *Player) error {
	now := time.Now().UTC()
	if player.CreatedAt.IsZero() {
		player.CreatedAt = now
	}
	player.UpdatedAt = now

	item, err := attributevalue.MarshalMap(player)
	if err != nil {
		logging.Log.Errorf("PLAYER: failed to marshal player: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("PLAYER: failed to put player: %v", err)
		return err
	}
	return nil
}

// SetVote records a card selection and marks the player done voting. The
// condition rejects the write when the player no longer belongs to the game,
// so a stale vote cannot follow the player into another session.
func (s *DynamoPlayerStorage) SetVote(ctx context.Context, id, gameID, value string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND GameID = :gid"),
		UpdateExpression:    aws.String("SET #val = :val, VoteState = :state, UpdatedAt = :now"),
		ExpressionAttributeNames: map[string]string{
			"#val": "Value",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid":   &types.AttributeValueMemberS{Value: gameID},
			":val":   &types.AttributeValueMemberS{Value: value},
			":state": &types.AttributeValueMemberS{Value: string(VoteFinished)},
			":now":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("PLAYER: vote rejected, player %s is not in game %s", id, gameID)
			return ErrPlayerNotFound
		}
		logging.Log.Errorf("PLAYER: failed to set vote for %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoPlayerStorage) ClearVote(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET #val = :null, VoteState = :state, UpdatedAt = :now"),
		ExpressionAttributeNames: map[string]string{
			"#val": "Value",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":null":  &types.AttributeValueMemberNULL{Value: true},
			":state": &types.AttributeValueMemberS{Value: string(VoteNotStarted)},
			":now":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrPlayerNotFound
		}
		logging.Log.Errorf("PLAYER: failed to clear vote for %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoPlayerStorage) ListByGame(ctx context.Context, gameID string) ([]*Player, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("GameID = :gid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid": &types.AttributeValueMemberS{Value: gameID},
		},
	})
	if err != nil {
		logging.Log.Errorf("PLAYER: scan by game failed: %v", err)
		return nil, err
	}

	var players []*Player
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &players); err != nil {
		logging.Log.Errorf("PLAYER: failed to unmarshal player list: %v", err)
		return nil, err
	}
	return players, nil
}
