package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 金币兑换常量：10000金币=280卢比，100000金币=2800卢比，线性无阶梯
const (
	WithdrawCoins    int64 = 100000 // 每次提现固定扣除
	WithdrawAmountRs int64 = 2800   // 每次提现固定到账金额
)

// 提现状态，本服务只产生 pending，approved/rejected 由管理端写入
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// 支持的到账渠道
const (
	MethodEasypaisa = "easypaisa"
	MethodJazzCash  = "jazzcash"
)

// WithdrawalRequest 提现申请（withdrawals 集合），创建后客户端视角不可变
type WithdrawalRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"userId"`
	UserName      string             `bson:"userName" json:"userName"`
	Amount        int64              `bson:"amount" json:"amount"`
	CoinsDeducted int64              `bson:"coinsDeducted" json:"coinsDeducted"`
	Method        string             `bson:"method" json:"method"`
	AccountTitle  string             `bson:"accountTitle" json:"accountTitle"`
	AccountNumber string             `bson:"accountNumber" json:"accountNumber"`
	Status        string             `bson:"status" json:"status"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"` // 入库时由存储层赋值
	UserAvatar    string             `bson:"userAvatar" json:"userAvatar"`
}

// ValidMethod 是否支持的到账渠道
func ValidMethod(method string) bool {
	return method == MethodEasypaisa || method == MethodJazzCash
}

// PayoutValue 按固定汇率估算金币对应的卢比价值
func PayoutValue(coins int64) float64 {
	return float64(coins) / float64(WithdrawCoins) * float64(WithdrawAmountRs)
}
