package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepository 房间数据仓库（rooms 集合）
type RoomRepository struct {
	collection *mongo.Collection
}

// NewRoomRepository 创建房间仓库
func NewRoomRepository(mm *MongoManager) *RoomRepository {
	collection := mm.GetCollection("rooms")

	// 创建索引
	// code 不加唯一索引：加入码靠随机长度保证低碰撞，与线上数据行为保持一致
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "code", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdBy", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	collection.Indexes().CreateMany(context.Background(), indexes)

	return &RoomRepository{
		collection: collection,
	}
}

// Create 创建房间
func (rr *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().UnixMilli()
	}

	result, err := rr.collection.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("failed to create room: %v", err)
	}

	room.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByCode 根据加入码获取房间，多个同码房间时取第一个
func (rr *RoomRepository) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	err := rr.collection.FindOne(ctx, bson.M{"code": code}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %v", err)
	}
	return &room, nil
}

// List 获取房间列表，顺序不保证
func (rr *RoomRepository) List(ctx context.Context, limit int64) ([]*model.Room, error) {
	opts := options.Find().SetLimit(limit)

	cursor, err := rr.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %v", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %v", err)
	}

	return rooms, nil
}
