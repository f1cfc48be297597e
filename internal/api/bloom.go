package api

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"ca-probe/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Deduper：判断快照摘要是否首次出现
type Deduper interface {
	FirstSeen(ctx context.Context, fingerprint string) bool
}

const (
	bloomKey  = "ca:dedupe:bloom"
	bloomBits = 1 << 20
	bloomK    = 4
)

// 文档注释：基于 Redis 位图的布隆去重
// 背景：同一快照在窗口期内重复提交时只写一次历史。
// 约束：位图按 TTL 分桶（键名带桶号），查询当前桶与上一桶，写入当前桶；键在 2×TTL 后过期，
// 因此去重窗口介于 TTL 与 2×TTL 之间，单个位图只承载一个桶内的写入。
// 存在误判（把新快照当作已见过），只影响历史是否写入，不影响判定结果。
type BloomDeduper struct {
	rc  *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewBloomDeduper：rc 为 nil 时返回 nil，调用方视为未启用；ttl 不足 1 秒按 1 秒处理
func NewBloomDeduper(rc *redis.Client, ttl time.Duration) Deduper {
	if rc == nil {
		return nil
	}
	return newBloomDeduper(rc, ttl)
}

func newBloomDeduper(rc *redis.Client, ttl time.Duration) *BloomDeduper {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &BloomDeduper{rc: rc, ttl: ttl, now: time.Now}
}

// bucketKeys：当前桶与上一桶的键名
func (b *BloomDeduper) bucketKeys() (cur, prev string) {
	n := b.now().Unix() / int64(b.ttl/time.Second)
	return bloomKey + ":" + strconv.FormatInt(n, 10), bloomKey + ":" + strconv.FormatInt(n-1, 10)
}

func (b *BloomDeduper) FirstSeen(ctx context.Context, fingerprint string) bool {
	cur, prev := b.bucketKeys()
	first, err := bloomCheckAndSet(ctx, b.rc, cur, prev, bloomPositions([]byte(fingerprint), bloomBits, bloomK), 2*b.ttl)
	if err != nil {
		logger.L().Debug("dedupe_error", "err", err)
		return true
	}
	return first
}

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：检查两个位图并写入当前位图
// 返回：true 表示首次见到（已写入 cur）；false 表示 cur 或 prev 中已存在。
// 异常：Redis 交互错误时返回 error，调用方按首次见到处理，避免阻断主流程。
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, cur, prev string, positions []int64, ttl time.Duration) (bool, error) {
	pipe := rc.Pipeline()
	curBits := make([]*redis.IntCmd, len(positions))
	prevBits := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		curBits[i] = pipe.GetBit(ctx, cur, p)
		prevBits[i] = pipe.GetBit(ctx, prev, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	if allSet(curBits) || allSet(prevBits) {
		return false, nil
	}
	pipe = rc.Pipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, cur, p, 1)
	}
	// 键名随桶变化，刷新 TTL 不会让单个位图无限存活
	pipe.Expire(ctx, cur, ttl)
	_, err := pipe.Exec(ctx)
	return true, err
}

func allSet(bits []*redis.IntCmd) bool {
	for _, c := range bits {
		if c.Val() == 0 {
			return false
		}
	}
	return true
}
