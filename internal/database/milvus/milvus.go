package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"

	"EduConnect/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
)

var (
	instance client.Client
	once     sync.Once
	initErr  error
)

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
// 学习资料的向量索引由外部的索引服务维护，本服务只做只读检索，
// 因此这里不负责创建集合或索引。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (client.Client, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{
			Address: cfg.Address,
		})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}

		// 确认目标集合存在，提前暴露配置错误。
		has, err := c.HasCollection(ctx, cfg.Collection)
		if err != nil {
			initErr = fmt.Errorf("检查 Milvus 集合失败: %w", err)
			return
		}
		if !has {
			initErr = fmt.Errorf("Milvus 集合 '%s' 不存在", cfg.Collection)
			return
		}

		// 检索前集合必须已加载到内存。
		if err := c.LoadCollection(ctx, cfg.Collection, false); err != nil {
			initErr = fmt.Errorf("加载 Milvus 集合失败: %w", err)
			return
		}

		log.Println("✅ 成功连接到 Milvus!")
		instance = c
	})

	return instance, initErr
}

// Close 安全地关闭单例的 Milvus 连接。
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
