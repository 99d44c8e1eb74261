package repository

import (
	"context"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultLoansTableName = "loans"

type loanItem struct {
	ID                 string `dynamodbav:"id"`
	UserID             string `dynamodbav:"user_id"`
	Principal          string `dynamodbav:"principal"`
	OutstandingBalance string `dynamodbav:"outstanding_balance"`
	AmountPaid         string `dynamodbav:"amount_paid"`
	Currency           string `dynamodbav:"currency"`
	Status             string `dynamodbav:"status"`
	Version            int64  `dynamodbav:"version"`
	CreatedAt          string `dynamodbav:"created_at"`
	UpdatedAt          string `dynamodbav:"updated_at"`
	RepaidAt           string `dynamodbav:"repaid_at,omitempty"`
}

// LoanDynamoRepository persists the ledger view of Loan entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//
// Balance writes happen exclusively through LedgerDynamoRepository so the
// payment transition and the balance change land in one transaction.

type LoanDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.ILoanRepository = (*LoanDynamoRepository)(nil)

func NewLoanDynamoRepository(ddb *dynamodb.Client) *LoanDynamoRepository {
	return &LoanDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("LOANS_TABLE", defaultLoansTableName),
	}
}

func (r *LoanDynamoRepository) Create(ctx context.Context, l entities.Loan) (entities.Loan, error) {
	it := toLoanItem(l)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Loan{}, err
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
		return entities.Loan{}, err
	}
	return l, nil
}

func (r *LoanDynamoRepository) GetByID(ctx context.Context, id string) (entities.Loan, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Loan{}, err
	}
	if len(out.Item) == 0 {
		return entities.Loan{}, nil
	}

	var it loanItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Loan{}, err
	}
	return fromLoanItem(it), nil
}

func toLoanItem(l entities.Loan) loanItem {
	return loanItem{
		ID:                 l.ID,
		UserID:             l.UserID,
		Principal:          l.Principal.String(),
		OutstandingBalance: l.OutstandingBalance.String(),
		AmountPaid:         l.AmountPaid.String(),
		Currency:           l.Currency,
		Status:             string(l.Status),
		Version:            l.Version,
		CreatedAt:          formatTime(l.CreatedAt),
		UpdatedAt:          formatTime(l.UpdatedAt),
		RepaidAt:           formatTimePtr(l.RepaidAt),
	}
}

func fromLoanItem(it loanItem) entities.Loan {
	return entities.Loan{
		ID:                 it.ID,
		UserID:             it.UserID,
		Principal:          parseDecimal(it.Principal),
		OutstandingBalance: parseDecimal(it.OutstandingBalance),
		AmountPaid:         parseDecimal(it.AmountPaid),
		Currency:           it.Currency,
		Status:             entities.LoanStatus(it.Status),
		Version:            it.Version,
		CreatedAt:          parseTime(it.CreatedAt),
		UpdatedAt:          parseTime(it.UpdatedAt),
		RepaidAt:           parseTimePtr(it.RepaidAt),
	}
}
