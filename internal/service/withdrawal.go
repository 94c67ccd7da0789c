package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
)

var (
	ErrWithdrawalLocked = errors.New("withdrawal locked: balance below threshold")
	ErrInvalidMethod    = errors.New("unsupported payout method")
	ErrAccountDetails   = errors.New("account title and number are required")
)

// EventPublisher 业务事件发布接口，mq.EventBroker 实现
type EventPublisher interface {
	PublishWithdrawalCreated(req *model.WithdrawalRequest) error
	PublishChatMessage(scope model.ChatScope, msg *model.Message) error
}

// WithdrawalWorkflow 提现流程
// 先扣币后建单；建单失败执行补偿入账，补偿再失败只能记日志，这是残留的已知缺口
type WithdrawalWorkflow struct {
	users       database.UserStore
	withdrawals database.WithdrawalStore
	ledger      *Ledger
	events      EventPublisher
	metrics     *monitoring.MetricsCollector
}

// NewWithdrawalWorkflow 创建提现服务
func NewWithdrawalWorkflow(users database.UserStore, withdrawals database.WithdrawalStore, ledger *Ledger, events EventPublisher, metrics *monitoring.MetricsCollector) *WithdrawalWorkflow {
	return &WithdrawalWorkflow{
		users:       users,
		withdrawals: withdrawals,
		ledger:      ledger,
		events:      events,
		metrics:     metrics,
	}
}

// Submit 提交提现申请
// 门槛在提交点重新校验（不信任界面状态）：余额不足直接拒绝，不产生任何变更；
// 扣款是条件原子操作，并发提交也不会把余额扣成负数
func (ww *WithdrawalWorkflow) Submit(ctx context.Context, userID, method, accountTitle, accountNumber string) (*model.WithdrawalRequest, error) {
	if !model.ValidMethod(method) {
		return nil, ErrInvalidMethod
	}
	if strings.TrimSpace(accountTitle) == "" || strings.TrimSpace(accountNumber) == "" {
		return nil, ErrAccountDetails
	}

	user, err := ww.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Coins < model.WithdrawCoins {
		ww.incResult("rejected")
		return nil, ErrWithdrawalLocked
	}

	// 1. 扣除金币（条件原子扣减，余额此刻不足也会在这里被拦下）
	if err := ww.ledger.Debit(ctx, userID, model.WithdrawCoins, ReasonWithdrawal); err != nil {
		if errors.Is(err, database.ErrInsufficientCoins) {
			ww.incResult("rejected")
			return nil, ErrWithdrawalLocked
		}
		return nil, err
	}

	// 2. 写入提现申请
	req := &model.WithdrawalRequest{
		UserID:        userID,
		UserName:      user.Name,
		Amount:        model.WithdrawAmountRs,
		CoinsDeducted: model.WithdrawCoins,
		Method:        method,
		AccountTitle:  accountTitle,
		AccountNumber: accountNumber,
		Status:        model.WithdrawalPending,
		UserAvatar:    user.Avatar,
	}

	if err := ww.withdrawals.Create(ctx, req); err != nil {
		// 建单失败，补偿已扣的金币
		if compErr := ww.ledger.Credit(ctx, userID, model.WithdrawCoins, ReasonCompensation); compErr != nil {
			logger.Errorf("withdrawal compensation failed, coins lost: user=%s amount=%d err=%v",
				userID, model.WithdrawCoins, compErr)
		}
		ww.incResult("failed")
		return nil, err
	}

	if ww.events != nil {
		if err := ww.events.PublishWithdrawalCreated(req); err != nil {
			// 事件丢失不影响申请本身，管理端仍可扫表
			logger.Warnf("failed to publish withdrawal event: %v", err)
		}
	}

	ww.incResult("accepted")
	logger.Infof("withdrawal submitted: user=%s method=%s amount=%d", userID, method, req.Amount)
	return req, nil
}

// History 用户提现记录
func (ww *WithdrawalWorkflow) History(ctx context.Context, userID string, limit int64) ([]*model.WithdrawalRequest, error) {
	return ww.withdrawals.ListByUser(ctx, userID, limit)
}

func (ww *WithdrawalWorkflow) incResult(result string) {
	if ww.metrics != nil {
		ww.metrics.IncWithdrawal(result)
	}
}
