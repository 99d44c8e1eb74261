package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LedgerDynamoRepository applies reconciliation outcomes atomically.
//
// The payment transition and the loan balance change go out as one
// TransactWriteItems call:
//   - payment update conditioned on status = pending
//   - loan update conditioned on version = the version the reconciler loaded
//
// Either condition failing cancels the whole transaction, which surfaces as
// interfaces.ErrConditionFailed; the reconciler reloads and decides whether
// the outcome was already applied by the other ingestion path.

type LedgerDynamoRepository struct {
	ddb           *dynamodb.Client
	paymentsTable string
	loansTable    string
}

var _ interfaces.ILedgerRepository = (*LedgerDynamoRepository)(nil)

func NewLedgerDynamoRepository(ddb *dynamodb.Client) *LedgerDynamoRepository {
	return &LedgerDynamoRepository{
		ddb:           ddb,
		paymentsTable: getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
		loansTable:    getenvDefault("LOANS_TABLE", defaultLoansTableName),
	}
}

func (r *LedgerDynamoRepository) CommitOutcome(ctx context.Context, c interfaces.LedgerCommit) error {
	items := []types.TransactWriteItem{
		{Update: r.paymentUpdate(c)},
	}
	if c.TouchLoan {
		items = append(items, types.TransactWriteItem{Update: r.loanUpdate(c)})
	}

	_, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return fmt.Errorf("ledger commit payment_id=%s: %w", c.PaymentID, interfaces.ErrConditionFailed)
				}
			}
		}
		return err
	}
	return nil
}

func (r *LedgerDynamoRepository) paymentUpdate(c interfaces.LedgerCommit) *types.Update {
	expr := "SET #status = :new_status, #gateway_status_text = :st, #raw_callback_payload = :raw"
	values := map[string]types.AttributeValue{
		":new_status": &types.AttributeValueMemberS{Value: string(c.NewPaymentStatus)},
		":st":         &types.AttributeValueMemberS{Value: c.GatewayStatusText},
		":raw":        &types.AttributeValueMemberS{Value: string(c.RawCallbackPayload)},
		":pending":    &types.AttributeValueMemberS{Value: string(entities.PaymentStatusPending)},
	}
	names := map[string]string{
		"#status":               "status",
		"#gateway_status_text":  "gateway_status_text",
		"#raw_callback_payload": "raw_callback_payload",
	}
	if c.PaidAt != nil {
		expr += ", #paid_at = :paid_at"
		values[":paid_at"] = &types.AttributeValueMemberS{Value: formatTime(*c.PaidAt)}
		names["#paid_at"] = "paid_at"
	}

	return &types.Update{
		TableName: aws.String(r.paymentsTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: c.PaymentID},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("#status = :pending"),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
	}
}

func (r *LedgerDynamoRepository) loanUpdate(c interfaces.LedgerCommit) *types.Update {
	now := time.Now().UTC()
	expr := "SET #outstanding = :outstanding, #amount_paid = :amount_paid, #status = :loan_status, #version = :new_version, #updated_at = :updated_at"
	values := map[string]types.AttributeValue{
		":outstanding": &types.AttributeValueMemberS{Value: c.NewOutstanding.String()},
		":amount_paid": &types.AttributeValueMemberS{Value: c.NewAmountPaid.String()},
		":loan_status": &types.AttributeValueMemberS{Value: string(c.NewLoanStatus)},
		":new_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(c.LoanVersion+1, 10)},
		":old_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(c.LoanVersion, 10)},
		":updated_at":  &types.AttributeValueMemberS{Value: formatTime(now)},
	}
	names := map[string]string{
		"#outstanding": "outstanding_balance",
		"#amount_paid": "amount_paid",
		"#status":      "status",
		"#version":     "version",
		"#updated_at":  "updated_at",
	}
	if c.RepaidAt != nil {
		expr += ", #repaid_at = :repaid_at"
		values[":repaid_at"] = &types.AttributeValueMemberS{Value: formatTime(*c.RepaidAt)}
		names["#repaid_at"] = "repaid_at"
	}

	return &types.Update{
		TableName: aws.String(r.loansTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: c.LoanID},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("#version = :old_version"),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
	}
}
