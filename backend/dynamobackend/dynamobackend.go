// Package dynamobackend is the cloud document store Backend variant,
// backed by github.com/aws/aws-sdk-go's DynamoDB client. AtomicWrite uses
// TransactWriteItems with ConditionExpression: attribute_not_exists(pk) for
// SetIfAbsent; a TransactionCanceledException whose cancellation reasons
// include a conditional-check failure is mapped to committed=false rather
// than propagated as a transport error. Dependency grounded on
// ccbrown/keyvaluestore's own go.mod, which pairs aws-sdk-go with exactly
// this style of cloud-store backend.
package dynamobackend

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/dskart/payment-engine/backend"
)

const (
	attrPK     = "pk"
	attrValue  = "value"
	attrSetKey = "zset_pk"
	attrScore  = "score"
	attrMember = "member"

	// scoreIndex is a GSI with hash key zset_pk and range key score,
	// projecting member, required for the range-by-score read operations.
	scoreIndex = "zset-score-index"
)

// Backend talks to a single DynamoDB table holding both point values (keyed
// by a "v#" prefixed pk) and sorted-set members (keyed by a "z#" prefixed
// pk, with zset_pk/score/member attributes for the GSI).
type Backend struct {
	client    *dynamodb.DynamoDB
	tableName string

	// allowEventuallyConsistentReads relaxes Get/BatchGet to
	// eventually-consistent reads, never applied to writes. Range reads go
	// through a GSI and are eventually consistent whether or not it is set. Selected by
	// the query surface, never by a write session (spec §4.5).
	allowEventuallyConsistentReads bool
}

func New(client *dynamodb.DynamoDB, tableName string) *Backend {
	return &Backend{client: client, tableName: tableName}
}

// WithEventuallyConsistentReads returns a copy of b that relaxes reads.
// Satisfies store's optional relaxedReadBackend interface.
func (b *Backend) WithEventuallyConsistentReads() backend.Backend {
	cp := *b
	cp.allowEventuallyConsistentReads = true
	return &cp
}

func valueItemPK(key []byte) string {
	return "v#" + string(key)
}

func zsetItemPK(setKey, member []byte) string {
	return "z#" + string(setKey) + "#" + string(member)
}

func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, error) {
	out, err := b.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.tableName),
		Key:            map[string]*dynamodb.AttributeValue{attrPK: {S: aws.String(valueItemPK(key))}},
		ConsistentRead: aws.Bool(!b.allowEventuallyConsistentReads),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	v, ok := out.Item[attrValue]
	if !ok || v.B == nil {
		return nil, nil
	}
	return v.B, nil
}

func (b *Backend) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// DynamoDB's BatchGetItem caps a single request at 100 keys; the store
	// layer's callers stay well under that for this system's index sizes.
	keysAndAttrs := &dynamodb.KeysAndAttributes{ConsistentRead: aws.Bool(!b.allowEventuallyConsistentReads)}
	pkToOriginal := make(map[string][]byte, len(keys))
	for _, k := range keys {
		pk := valueItemPK(k)
		pkToOriginal[pk] = k
		keysAndAttrs.Keys = append(keysAndAttrs.Keys, map[string]*dynamodb.AttributeValue{
			attrPK: {S: aws.String(pk)},
		})
	}

	resp, err := b.client.BatchGetItemWithContext(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{b.tableName: keysAndAttrs},
	})
	if err != nil {
		return nil, err
	}
	for _, item := range resp.Responses[b.tableName] {
		pk := aws.StringValue(item[attrPK].S)
		if v, ok := item[attrValue]; ok && v.B != nil {
			out[string(pkToOriginal[pk])] = v.B
		}
	}
	return out, nil
}

func (b *Backend) ZAdd(ctx context.Context, setKey, member []byte, score float64) error {
	_, err := b.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      zsetItem(setKey, member, score),
	})
	return err
}

func (b *Backend) ZRem(ctx context.Context, setKey, member []byte) error {
	_, err := b.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key:       map[string]*dynamodb.AttributeValue{attrPK: {S: aws.String(zsetItemPK(setKey, member))}},
	})
	return err
}

func (b *Backend) ZRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.zRangeByScore(ctx, setKey, min, max, limit, false)
}

func (b *Backend) ZRevRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.zRangeByScore(ctx, setKey, min, max, limit, true)
}

func (b *Backend) zRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int, descending bool) ([][]byte, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(b.tableName),
		IndexName:              aws.String(scoreIndex),
		ConsistentRead:         aws.Bool(false), // GSIs never support consistent reads
		KeyConditionExpression: aws.String("#sk = :sk AND #score BETWEEN :min AND :max"),
		ExpressionAttributeNames: map[string]*string{
			"#sk":    aws.String(attrSetKey),
			"#score": aws.String(attrScore),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":sk":  {S: aws.String(string(setKey))},
			":min": {N: aws.String(strconv.FormatFloat(min, 'f', -1, 64))},
			":max": {N: aws.String(strconv.FormatFloat(max, 'f', -1, 64))},
		},
		ScanIndexForward: aws.Bool(!descending),
	}
	if limit > 0 {
		input.Limit = aws.Int64(int64(limit))
	}

	resp, err := b.client.QueryWithContext(ctx, input)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(resp.Items))
	for _, item := range resp.Items {
		if m, ok := item[attrMember]; ok && m.B != nil {
			out = append(out, m.B)
		}
	}
	return out, nil
}

func zsetItem(setKey, member []byte, score float64) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		attrPK:     {S: aws.String(zsetItemPK(setKey, member))},
		attrSetKey: {S: aws.String(string(setKey))},
		attrMember: {B: member},
		attrScore:  {N: aws.String(strconv.FormatFloat(score, 'f', -1, 64))},
	}
}

// AtomicWrite maps the batch onto a single TransactWriteItems call: Set and
// ZAdd/ZRem become unconditional Puts/Deletes, SetIfAbsent becomes a Put
// conditioned on attribute_not_exists(pk). A conditional check failure
// surfaces as a TransactionCanceledException, which we inspect for the
// ConditionalCheckFailed reason rather than propagating as a transport
// error.
func (b *Backend) AtomicWrite(ctx context.Context, batch *backend.WriteBatch) (bool, error) {
	ops := batch.Ops()
	items := make([]*dynamodb.TransactWriteItem, 0, len(ops))

	for _, op := range ops {
		switch op.Kind {
		case backend.OpSet:
			items = append(items, &dynamodb.TransactWriteItem{
				Put: &dynamodb.Put{
					TableName: aws.String(b.tableName),
					Item: map[string]*dynamodb.AttributeValue{
						attrPK:    {S: aws.String(valueItemPK(op.Key))},
						attrValue: {B: op.Value},
					},
				},
			})
		case backend.OpSetIfAbsent:
			items = append(items, &dynamodb.TransactWriteItem{
				Put: &dynamodb.Put{
					TableName:           aws.String(b.tableName),
					ConditionExpression: aws.String("attribute_not_exists(#pk)"),
					ExpressionAttributeNames: map[string]*string{
						"#pk": aws.String(attrPK),
					},
					Item: map[string]*dynamodb.AttributeValue{
						attrPK:    {S: aws.String(valueItemPK(op.Key))},
						attrValue: {B: op.Value},
					},
				},
			})
		case backend.OpZAdd:
			items = append(items, &dynamodb.TransactWriteItem{
				Put: &dynamodb.Put{
					TableName: aws.String(b.tableName),
					Item:      zsetItem(op.SetKey, op.Member, op.Score),
				},
			})
		case backend.OpZRem:
			items = append(items, &dynamodb.TransactWriteItem{
				Delete: &dynamodb.Delete{
					TableName: aws.String(b.tableName),
					Key:       map[string]*dynamodb.AttributeValue{attrPK: {S: aws.String(zsetItemPK(op.SetKey, op.Member))}},
				},
			})
		}
	}

	_, err := b.client.TransactWriteItemsWithContext(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return true, nil
	}
	if isConditionalCheckFailure(err) {
		return false, nil
	}
	return false, err
}

func isConditionalCheckFailure(err error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok || aerr.Code() != dynamodb.ErrCodeTransactionCanceledException {
		return false
	}
	return strings.Contains(aerr.Message(), "ConditionalCheckFailed")
}
