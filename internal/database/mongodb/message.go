package mongodb

import (
	"context"
	"fmt"

	"github.com/ahmaddaku97-design/Aim/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository 消息数据仓库
// 世界频道写 messages_world，房间频道写 messages（roomId 划分），均为只追加
type MessageRepository struct {
	world *mongo.Collection
	rooms *mongo.Collection
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(mm *MongoManager) *MessageRepository {
	world := mm.GetCollection("messages_world")
	rooms := mm.GetCollection("messages")

	world.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	})
	rooms.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "timestamp", Value: 1}}},
	})

	return &MessageRepository{
		world: world,
		rooms: rooms,
	}
}

// Append 追加一条消息到指定频道
func (mr *MessageRepository) Append(ctx context.Context, scope model.ChatScope, msg *model.Message) error {
	collection := mr.world
	if !scope.IsWorld() {
		collection = mr.rooms
		msg.RoomID = scope.RoomID
	}

	result, err := collection.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to append message: %v", err)
	}

	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Latest 最近 limit 条消息，按 timestamp 升序返回
// 查询按降序取最新一段再反转，避免全量扫描
func (mr *MessageRepository) Latest(ctx context.Context, scope model.ChatScope, limit int64) ([]*model.Message, error) {
	collection := mr.world
	filter := bson.M{}
	if !scope.IsWorld() {
		collection = mr.rooms
		filter["roomId"] = scope.RoomID
	}

	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []*model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}

	// 反转为升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
