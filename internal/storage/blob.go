package storage

import (
	"context"
	"io"
)

// BlobStore 外部对象存储接口：上传后返回可长期访问的URI
// 头像上传只消费返回的URI，具体实现（云存储SDK）由部署方注入
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}
