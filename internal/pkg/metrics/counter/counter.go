// Package counter keeps lightweight publish metrics in Redis. Per-platform
// outcome counters stay in Redis for the status page; per-post publish
// counts are drained to the database in batches.
package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/cache"
	"github.com/JonasWeigert/PostPilot/internal/pkg/database"
)

const (
	publishSuccessKey = "publish:counters:success"
	publishFailureKey = "publish:counters:failure"
	postPublishesKey  = "post:counters:publishes"
)

// AddPublishResult increments the per-platform outcome counter.
func AddPublishResult(platform models.Platform, success bool) error {
	ctx := context.Background()
	key := publishFailureKey
	if success {
		key = publishSuccessKey
	}
	return cache.GetClient().HIncrBy(ctx, key, string(platform), 1).Err()
}

// AddPostPublish increments the pending publish counter for a post.
func AddPostPublish(postID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(postID), 10)
	return cache.GetClient().HIncrBy(ctx, postPublishesKey, field, 1).Err()
}

// Snapshot returns the per-platform success and failure totals.
func Snapshot() (success, failure map[string]int64, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	rawSuccess, err := rdb.HGetAll(ctx, publishSuccessKey).Result()
	if err != nil {
		return nil, nil, err
	}
	rawFailure, err := rdb.HGetAll(ctx, publishFailureKey).Result()
	if err != nil {
		return nil, nil, err
	}

	return parseCounts(rawSuccess), parseCounts(rawFailure), nil
}

func parseCounts(raw map[string]string) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out
}

// FlushPostCounts drains the pending per-post publish counters to the posts
// table.
func FlushPostCounts() error {
	return flushHashToTable(postPublishesKey, "posts", "publish_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments to the target table.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// Key absent means nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	return db.Exec(builder.String(), args...).Error
}
