package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// 双边邀请奖励
const (
	ReferredUserBonus int64 = 500  // 新用户注册奖励
	ReferrerBonus     int64 = 1000 // 邀请人奖励
)

// ReferralEngine 邀请返利
type ReferralEngine struct {
	users  database.UserStore
	ledger *Ledger
}

// NewReferralEngine 创建邀请服务
func NewReferralEngine(users database.UserStore, ledger *Ledger) *ReferralEngine {
	return &ReferralEngine{
		users:  users,
		ledger: ledger,
	}
}

// Apply 注册时应用邀请码，返回是否命中
// 码为空或无精确匹配（大小写敏感）时静默跳过，新账户金币保持0；
// 命中时给draft预置500金币，并给邀请人入账1000金币
func (re *ReferralEngine) Apply(ctx context.Context, draft *model.User, suppliedCode string) (bool, error) {
	code := strings.TrimSpace(suppliedCode)
	if code == "" {
		return false, nil
	}

	// 自己的码不能邀请自己
	if code == draft.ReferralCode {
		logger.Warnf("self-referral rejected: user=%s", draft.ID)
		return false, nil
	}

	referrer, err := re.users.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// 无效码不报错，按无邀请处理
			return false, nil
		}
		return false, err
	}

	draft.Coins = ReferredUserBonus

	if err := re.ledger.Credit(ctx, referrer.ID, ReferrerBonus, ReasonReferral); err != nil {
		return false, err
	}

	logger.Infof("referral applied: code=%s referrer=%s new_user=%s", code, referrer.ID, draft.ID)
	return true, nil
}
