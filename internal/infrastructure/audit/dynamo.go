package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// Recorder appends state transitions to an audit trail. Recording is
// best-effort: implementations log failures and never surface them, so a
// dead audit store cannot roll back a committed transaction.
type Recorder interface {
	Record(ctx context.Context, entityType, entityID, transition string, detail any)
}

// Nop discards audit records. Used when no audit table is configured.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string, any) {}

// DynamoLog writes one item per committed state transition.
type DynamoLog struct {
	client *dynamodb.Client
	table  string
}

// auditItem is the DynamoDB item shape. PK groups all transitions of one
// entity; SK orders them by time with a random suffix against collisions.
type auditItem struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	EntityType string `dynamodbav:"entity_type"`
	EntityID   string `dynamodbav:"entity_id"`
	Transition string `dynamodbav:"transition"`
	Detail     string `dynamodbav:"detail"`
	RecordedAt string `dynamodbav:"recorded_at"`
}

func NewDynamoLog(client *dynamodb.Client, table string) *DynamoLog {
	return &DynamoLog{client: client, table: table}
}

func (l *DynamoLog) Record(ctx context.Context, entityType, entityID, transition string, detail any) {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		log.Printf("[Audit] Failed to marshal detail for %s %s: %v", entityType, entityID, err)
		detailJSON = []byte("{}")
	}

	now := time.Now()
	item := auditItem{
		PK:         fmt.Sprintf("%s#%s", entityType, entityID),
		SK:         now.Format(time.RFC3339Nano) + "#" + uuid.New().String()[:8],
		EntityType: entityType,
		EntityID:   entityID,
		Transition: transition,
		Detail:     string(detailJSON),
		RecordedAt: now.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		log.Printf("[Audit] Failed to marshal item for %s %s: %v", entityType, entityID, err)
		return
	}

	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      av,
	}); err != nil {
		log.Printf("[Audit] Failed to record %s for %s %s: %v", transition, entityType, entityID, err)
	}
}
