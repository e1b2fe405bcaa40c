// 文件: pkg/market/cache_repo.go
// 市场报价 Redis 缓存层
//
// 【设计模式】装饰器模式 (Decorator Pattern)
// - 包装底层 QuoteRepository，透明添加缓存能力
//
// 【缓存策略】
// - 读: 先查 Redis，miss 则查 DB 并回填
// - 写: 先写 DB，成功后删除缓存 (Cache Aside)

package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 确保实现了接口
var _ QuoteRepository = (*CachedQuoteRepository)(nil)

const (
	// market:quotes:{yyyy-mm-dd}:{configuration}
	quoteCacheKeyPrefix = "market:quotes:"

	// 历史估值日的报价基本不变，TTL 可以长一些
	quoteCacheTTL = 6 * time.Hour
)

// CachedQuoteRepository Redis 缓存装饰器
type CachedQuoteRepository struct {
	repo   QuoteRepository
	redis  *redis.Client
	logger *zap.Logger
}

// NewCachedQuoteRepository 创建带缓存的 Repository
//
// 用法:
//
//	mysqlRepo := NewMySQLQuoteRepository(db)
//	cached := NewCachedQuoteRepository(mysqlRepo, redisClient)
//	mkt, err := Load(ctx, cached, asOf, "default")
func NewCachedQuoteRepository(repo QuoteRepository, rds *redis.Client) *CachedQuoteRepository {
	return &CachedQuoteRepository{repo: repo, redis: rds, logger: zap.NewNop()}
}

// SetLogger 设置日志，缓存读写失败只记日志
func (r *CachedQuoteRepository) SetLogger(l *zap.Logger) {
	if l != nil {
		r.logger = l
	}
}

func quoteCacheKey(asOf time.Time, configuration string) string {
	return quoteCacheKeyPrefix + asOf.Format(time.DateOnly) + ":" + normalize(configuration)
}

// ListByDate 带缓存查询
func (r *CachedQuoteRepository) ListByDate(ctx context.Context, asOf time.Time, configuration string) ([]*Quote, error) {
	key := quoteCacheKey(asOf, configuration)

	// 1. 查缓存
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var quotes []*Quote
		if json.Unmarshal(data, &quotes) == nil {
			return quotes, nil // Cache hit
		}
	}

	// 2. Cache miss, 查底层
	quotes, err := r.repo.ListByDate(ctx, asOf, configuration)
	if err != nil {
		return nil, err
	}

	// 3. 回填 (同步写，报价加载不在热路径上)
	if data, err := json.Marshal(quotes); err == nil {
		if err := r.redis.Set(ctx, key, data, quoteCacheTTL).Err(); err != nil {
			r.logger.Warn("quote cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return quotes, nil
}

// Save 写 DB 后删除受影响的缓存
func (r *CachedQuoteRepository) Save(ctx context.Context, quotes []*Quote) error {
	if err := r.repo.Save(ctx, quotes); err != nil {
		return err
	}

	keys := make(map[string]struct{})
	for _, q := range quotes {
		keys[quoteCacheKey(q.AsOf, q.Configuration)] = struct{}{}
	}
	for key := range keys {
		if err := r.redis.Del(ctx, key).Err(); err != nil {
			r.logger.Warn("quote cache invalidate failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}
