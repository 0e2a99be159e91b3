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
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"support-agent/internal/domain"
)

const (
	pkPrefixSession  = "SESSION#"
	skPrefixExchange = "MSG#"
	defaultLimit     = 50

	// Fixed-width so that sort keys order chronologically.
	skTimeLayout = "2006-01-02T15:04:05.000000000Z"
	dayLayout    = "2006-01-02"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// TranscriptStore defines the append-only transcript operations consumed by the use case.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, callerID *string, message, response, intent string) (domain.Exchange, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
	ListAll(ctx context.Context) ([]domain.Exchange, error)
}

// Client wraps a DynamoDB table holding exchange records.
type Client struct {
	api          dynamodbAPI
	tableName    string
	scanSegments int
}

type Option func(*Client)

// WithScanSegments splits ListAll into n parallel scan segments.
// Values below 2 scan the table sequentially.
func WithScanSegments(n int) Option {
	return func(c *Client) {
		c.scanSegments = n
	}
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	c := &Client{api: api, tableName: tableName, scanSegments: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = uuid.NewString
)

// sessionPK returns the partition key for a session transcript.
func sessionPK(sessionID string) string {
	return pkPrefixSession + sessionID
}

// exchangeSK orders exchanges by creation time; the id suffix keeps keys unique.
func exchangeSK(ts time.Time, id string) string {
	return skPrefixExchange + ts.UTC().Format(skTimeLayout) + "#" + id
}

// Append persists one exchange stamped with the current time.
func (c *Client) Append(ctx context.Context, sessionID string, callerID *string, message, response, intent string) (domain.Exchange, error) {
	ex := domain.Exchange{
		ID:        newID(),
		SessionID: sessionID,
		CallerID:  callerID,
		Message:   message,
		Response:  response,
		Intent:    intent,
		CreatedAt: now(),
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                exchangeItem(ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("repository: Append: %w", err)
	}
	return ex, nil
}

// ListBySession returns up to limit exchanges for a session, oldest first.
func (c *Client) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	p := dynamodb.NewQueryPaginator(c.api, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixExchange},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(limit)),
	})

	exchanges := make([]domain.Exchange, 0)
	for p.HasMorePages() && len(exchanges) < limit {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("repository: ListBySession query: %w", err)
		}
		for _, item := range out.Items {
			ex, err := itemToExchange(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListBySession unmarshal: %w", err)
			}
			exchanges = append(exchanges, ex)
			if len(exchanges) == limit {
				break
			}
		}
	}
	return exchanges, nil
}

// ListAll scans every exchange in the table. Order is unspecified.
func (c *Client) ListAll(ctx context.Context) ([]domain.Exchange, error) {
	if c.scanSegments < 2 {
		return c.scan(ctx, nil)
	}

	segments := make([][]domain.Exchange, c.scanSegments)
	g, gctx := errgroup.WithContext(ctx)
	for i := range segments {
		i := i
		g.Go(func() error {
			out, err := c.scan(gctx, &segment{index: int32(i), total: int32(c.scanSegments)})
			segments[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, seg := range segments {
		total += len(seg)
	}
	exchanges := make([]domain.Exchange, 0, total)
	for _, seg := range segments {
		exchanges = append(exchanges, seg...)
	}
	return exchanges, nil
}

type segment struct {
	index, total int32
}

// scan reads one scan segment, or the whole table when seg is nil.
func (c *Client) scan(ctx context.Context, seg *segment) ([]domain.Exchange, error) {
	in := &dynamodb.ScanInput{
		TableName:        aws.String(c.tableName),
		FilterExpression: aws.String("begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: skPrefixExchange},
		},
	}
	if seg != nil {
		in.Segment = aws.Int32(seg.index)
		in.TotalSegments = aws.Int32(seg.total)
	}

	p := dynamodb.NewScanPaginator(c.api, in)
	exchanges := make([]domain.Exchange, 0)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("repository: ListAll scan: %w", err)
		}
		for _, item := range out.Items {
			ex, err := itemToExchange(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListAll unmarshal: %w", err)
			}
			exchanges = append(exchanges, ex)
		}
	}
	return exchanges, nil
}

func exchangeItem(ex domain.Exchange) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: sessionPK(ex.SessionID)},
		"SK":        &types.AttributeValueMemberS{Value: exchangeSK(ex.CreatedAt, ex.ID)},
		"id":        &types.AttributeValueMemberS{Value: ex.ID},
		"sessionId": &types.AttributeValueMemberS{Value: ex.SessionID},
		"message":   &types.AttributeValueMemberS{Value: ex.Message},
		"response":  &types.AttributeValueMemberS{Value: ex.Response},
		"intent":    &types.AttributeValueMemberS{Value: ex.Intent},
		"createdAt": &types.AttributeValueMemberS{Value: ex.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"day":       &types.AttributeValueMemberS{Value: ex.CreatedAt.UTC().Format(dayLayout)},
	}
	// Anonymous exchanges carry no callerId attribute.
	if ex.CallerID != nil {
		item["callerId"] = &types.AttributeValueMemberS{Value: *ex.CallerID}
	}
	return item
}

// itemToExchange converts a DynamoDB attribute map to an Exchange.
func itemToExchange(item map[string]types.AttributeValue) (domain.Exchange, error) {
	var ex domain.Exchange
	var err error
	if ex.ID, err = strAttr(item, "id"); err != nil {
		return domain.Exchange{}, err
	}
	if ex.SessionID, err = strAttr(item, "sessionId"); err != nil {
		return domain.Exchange{}, err
	}
	if ex.Message, err = strAttr(item, "message"); err != nil {
		return domain.Exchange{}, err
	}
	if ex.Response, err = strAttr(item, "response"); err != nil {
		return domain.Exchange{}, err
	}
	if ex.Intent, err = strAttr(item, "intent"); err != nil {
		return domain.Exchange{}, err
	}
	if ex.CreatedAt, err = timeAttr(item, "createdAt"); err != nil {
		return domain.Exchange{}, err
	}
	if _, ok := item["callerId"]; ok {
		callerID, err := strAttr(item, "callerId")
		if err != nil {
			return domain.Exchange{}, err
		}
		ex.CallerID = &callerID
	}
	return ex, nil
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

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return ts, nil
}
