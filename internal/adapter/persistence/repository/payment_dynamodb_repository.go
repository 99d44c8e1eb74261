package repository

import (
	"context"
	"encoding/json"
	"errors"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultPaymentsTableName = "payments"
	paymentsReferenceIndex   = "merchant_reference-index"
	paymentsLoanIDIndex      = "loan_id-index"
)

type paymentItem struct {
	ID                 string `dynamodbav:"id"`
	LoanID             string `dynamodbav:"loan_id"`
	UserID             string `dynamodbav:"user_id"`
	MerchantReference  string `dynamodbav:"merchant_reference"`
	GatewayOrderID     string `dynamodbav:"gateway_order_id,omitempty"`
	Amount             string `dynamodbav:"amount"`
	Currency           string `dynamodbav:"currency"`
	PaymentMethod      string `dynamodbav:"payment_method"`
	PhoneNumber        string `dynamodbav:"phone_number,omitempty"`
	Status             string `dynamodbav:"status"`
	Description        string `dynamodbav:"description,omitempty"`
	Degraded           bool   `dynamodbav:"degraded,omitempty"`
	GatewayStatusText  string `dynamodbav:"gateway_status_text,omitempty"`
	RawCallbackPayload string `dynamodbav:"raw_callback_payload,omitempty"`
	CreatedAt          string `dynamodbav:"created_at"`
	PaidAt             string `dynamodbav:"paid_at,omitempty"`
	ExpiresAt          string `dynamodbav:"expires_at"`
}

// PaymentDynamoRepository persists Payment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: merchant_reference-index (PK: merchant_reference)
//   - GSI: loan_id-index (PK: loan_id)

type PaymentDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb *dynamodb.Client) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	it := toPaymentItem(p)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Payment{}, err
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByMerchantReference(ctx context.Context, merchantReference string) (entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsReferenceIndex),
		KeyConditionExpression: aws.String("merchant_reference = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: merchantReference},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Items) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) ListByLoanID(ctx context.Context, loanID string) ([]entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsLoanIDIndex),
		KeyConditionExpression: aws.String("loan_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: loanID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Payment, 0, len(out.Items))
	for _, raw := range out.Items {
		var it paymentItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromPaymentItem(it))
	}
	return items, nil
}

func (r *PaymentDynamoRepository) SetGatewayOrder(ctx context.Context, id, gatewayOrderID, statusText string, degraded bool) (entities.Payment, error) {
	return r.update(ctx, id,
		"SET #gateway_order_id = :oid, #gateway_status_text = :st, #degraded = :deg",
		map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: gatewayOrderID},
			":st":  &types.AttributeValueMemberS{Value: statusText},
			":deg": &types.AttributeValueMemberBOOL{Value: degraded},
		},
		map[string]string{
			"#gateway_order_id":    "gateway_order_id",
			"#gateway_status_text": "gateway_status_text",
			"#degraded":            "degraded",
		},
		aws.String("attribute_exists(#id)"),
	)
}

func (r *PaymentDynamoRepository) MarkFailed(ctx context.Context, id, statusText string) (entities.Payment, error) {
	p, err := r.update(ctx, id,
		"SET #status = :failed, #gateway_status_text = :st",
		map[string]types.AttributeValue{
			":failed":  &types.AttributeValueMemberS{Value: string(entities.PaymentStatusFailed)},
			":st":      &types.AttributeValueMemberS{Value: statusText},
			":pending": &types.AttributeValueMemberS{Value: string(entities.PaymentStatusPending)},
		},
		map[string]string{
			"#status":              "status",
			"#gateway_status_text": "gateway_status_text",
		},
		aws.String("attribute_exists(#id) AND #status = :pending"),
	)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		// Already terminal; report the row as it stands.
		return r.GetByID(ctx, id)
	}
	return p, nil
}

func (r *PaymentDynamoRepository) UpdateAudit(ctx context.Context, id, statusText string, rawPayload json.RawMessage) (entities.Payment, error) {
	return r.update(ctx, id,
		"SET #gateway_status_text = :st, #raw_callback_payload = :raw",
		map[string]types.AttributeValue{
			":st":  &types.AttributeValueMemberS{Value: statusText},
			":raw": &types.AttributeValueMemberS{Value: string(rawPayload)},
		},
		map[string]string{
			"#gateway_status_text":  "gateway_status_text",
			"#raw_callback_payload": "raw_callback_payload",
		},
		aws.String("attribute_exists(#id)"),
	)
}

func (r *PaymentDynamoRepository) update(
	ctx context.Context,
	id string,
	updateExpr string,
	values map[string]types.AttributeValue,
	names map[string]string,
	condition *string,
) (entities.Payment, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       condition,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Payment{}, nil
		}
		return entities.Payment{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func toPaymentItem(p entities.Payment) paymentItem {
	return paymentItem{
		ID:                 p.ID,
		LoanID:             p.LoanID,
		UserID:             p.UserID,
		MerchantReference:  p.MerchantReference,
		GatewayOrderID:     p.GatewayOrderID,
		Amount:             p.Amount.String(),
		Currency:           p.Currency,
		PaymentMethod:      string(p.PaymentMethod),
		PhoneNumber:        p.PhoneNumber,
		Status:             string(p.Status),
		Description:        p.Description,
		Degraded:           p.Degraded,
		GatewayStatusText:  p.GatewayStatusText,
		RawCallbackPayload: string(p.RawCallbackPayload),
		CreatedAt:          formatTime(p.CreatedAt),
		PaidAt:             formatTimePtr(p.PaidAt),
		ExpiresAt:          formatTime(p.ExpiresAt),
	}
}

func fromPaymentItem(it paymentItem) entities.Payment {
	return entities.Payment{
		ID:                 it.ID,
		LoanID:             it.LoanID,
		UserID:             it.UserID,
		MerchantReference:  it.MerchantReference,
		GatewayOrderID:     it.GatewayOrderID,
		Amount:             parseDecimal(it.Amount),
		Currency:           it.Currency,
		PaymentMethod:      entities.PaymentMethod(it.PaymentMethod),
		PhoneNumber:        it.PhoneNumber,
		Status:             entities.PaymentStatus(it.Status),
		Description:        it.Description,
		Degraded:           it.Degraded,
		GatewayStatusText:  it.GatewayStatusText,
		RawCallbackPayload: json.RawMessage(it.RawCallbackPayload),
		CreatedAt:          parseTime(it.CreatedAt),
		PaidAt:             parseTimePtr(it.PaidAt),
		ExpiresAt:          parseTime(it.ExpiresAt),
	}
}
