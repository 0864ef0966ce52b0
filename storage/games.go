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

// GameStorage persists game records. Finalize and AdvancePhase are
// conditional updates so the store itself enforces at-most-once phase
// transitions under concurrent clients.
type GameStorage interface {
	Create(ctx context.Context, game *Game) error
	Get(ctx context.Context, id string) (*Game, error)
	Touch(ctx context.Context, id string) error
	AdvancePhase(ctx context.Context, id string, from, to RoundPhase) error
	Finalize(ctx context.Context, id string, average *float64) error
	ResetRound(ctx context.Context, id string) error
}

type DynamoGameStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoGameStorage) Create(ctx context.Context, game *Game) error {
	now := time.Now().UTC()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now

	item, err := attributevalue.MarshalMap(game)
	if err != nil {
		logging.Log.Errorf("GAME: failed to marshal game: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("GAME: game with id %s already exists", game.ID)
			return ErrGameAlreadyExists
		}
		logging.Log.Errorf("GAME: failed to create game: %v", err)
		return err
	}
	return nil
}

func (s *DynamoGameStorage) Get(ctx context.Context, id string) (*Game, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("GAME: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("GAME: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrGameNotFound
	}

	var game *Game
	if err := attributevalue.UnmarshalMap(out.Item, &game); err != nil {
		logging.Log.Errorf("GAME: failed to unmarshal result: %v", err)
		return nil, err
	}
	return game, nil
}

func (s *DynamoGameStorage) Touch(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET UpdatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrGameNotFound
		}
		logging.Log.Errorf("GAME: failed to touch game %s: %v", id, err)
		return err
	}
	return nil
}

// AdvancePhase moves the game from one phase to another only if the game is
// still in the expected phase. A lost race returns ErrConditionFailed.
func (s *DynamoGameStorage) AdvancePhase(ctx context.Context, id string, from, to RoundPhase) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("Phase = :from"),
		UpdateExpression:    aws.String("SET Phase = :to, UpdatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrConditionFailed
		}
		logging.Log.Errorf("GAME: failed to advance phase for %s: %v", id, err)
		return err
	}
	return nil
}

// Finalize reveals the round: sets the average and the Finished phase in one
// conditional write. The condition guarantees the first reveal wins and every
// later attempt gets ErrConditionFailed instead of overwriting the average.
func (s *DynamoGameStorage) Finalize(ctx context.Context, id string, average *float64) error {
	avg, err := attributevalue.Marshal(average)
	if err != nil {
		logging.Log.Errorf("GAME: failed to marshal average: %v", err)
		return err
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND Phase <> :finished"),
		UpdateExpression:    aws.String("SET Phase = :finished, Average = :avg, UpdatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":finished": &types.AttributeValueMemberS{Value: string(PhaseFinished)},
			":avg":      avg,
			":now":      &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("GAME: game %s was already finalized", id)
			return ErrConditionFailed
		}
		logging.Log.Errorf("GAME: failed to finalize game %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoGameStorage) ResetRound(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET Phase = :started, Average = :null, UpdatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":started": &types.AttributeValueMemberS{Value: string(PhaseStarted)},
			":null":    &types.AttributeValueMemberNULL{Value: true},
			":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrGameNotFound
		}
		logging.Log.Errorf("GAME: failed to reset game %s: %v", id, err)
		return err
	}
	return nil
}
