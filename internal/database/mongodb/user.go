package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository 用户数据仓库（users 集合）
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository 创建用户仓库
func NewUserRepository(mm *MongoManager) *UserRepository {
	collection := mm.GetCollection("users")

	// 创建索引
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "referralCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "streak", Value: -1}},
		},
	}

	collection.Indexes().CreateMany(context.Background(), indexes)

	return &UserRepository{
		collection: collection,
	}
}

// Create 创建用户文档
func (ur *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.FriendsList == nil {
		user.FriendsList = []model.Friend{}
	}

	_, err := ur.collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

// GetByID 根据用户ID获取用户
func (ur *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := ur.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// UpdateFields 部分合并更新指定字段，不覆盖无关字段
func (ur *UserRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": fields}

	result, err := ur.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update user fields: %v", err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// IncrCoins 金币原子增量（服务端 $inc，不走本地读改写）
func (ur *UserRepository) IncrCoins(ctx context.Context, id string, delta int64) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$inc": bson.M{"coins": delta}}

	result, err := ur.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment coins: %v", err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DebitCoins 条件扣减金币：仅当余额充足时原子扣除，保证 coins 永不为负
func (ur *UserRepository) DebitCoins(ctx context.Context, id string, amount int64) error {
	filter := bson.M{"_id": id, "coins": bson.M{"$gte": amount}}
	update := bson.M{"$inc": bson.M{"coins": -amount}}

	result, err := ur.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to debit coins: %v", err)
	}
	if result.MatchedCount == 0 {
		// 区分账户不存在和余额不足
		if _, err := ur.GetByID(ctx, id); err != nil {
			return err
		}
		return database.ErrInsufficientCoins
	}
	return nil
}

// FindByReferralCode 按邀请码精确查找用户（大小写敏感）
func (ur *UserRepository) FindByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := ur.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by referral code: %v", err)
	}
	return &user, nil
}

// TopByStreak 按连续签到天数降序取排行榜
func (ur *UserRepository) TopByStreak(ctx context.Context, limit int64) ([]*model.User, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "streak", Value: -1}})

	cursor, err := ur.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %v", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}

	return users, nil
}
