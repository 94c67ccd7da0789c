package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WithdrawalRepository 提现申请数据仓库（withdrawals 集合）
// 本服务只写入 pending 记录，状态流转由管理端完成，这里不提供更新和删除
type WithdrawalRepository struct {
	collection *mongo.Collection
}

// NewWithdrawalRepository 创建提现仓库
func NewWithdrawalRepository(mm *MongoManager) *WithdrawalRepository {
	collection := mm.GetCollection("withdrawals")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	collection.Indexes().CreateMany(context.Background(), indexes)

	return &WithdrawalRepository{
		collection: collection,
	}
}

// Create 写入一条提现申请，时间戳由存储层赋值
func (wr *WithdrawalRepository) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	req.Timestamp = time.Now()

	result, err := wr.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request: %v", err)
	}

	req.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// ListByUser 某用户的提现申请，按时间倒序
func (wr *WithdrawalRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.WithdrawalRequest, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := wr.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []*model.WithdrawalRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawals: %v", err)
	}

	return requests, nil
}
