package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/redis/go-redis/v9"
)

// Keys under prefix:
//
//	:jobs        hash  id -> job json (ready and processing)
//	:ready       zset  id scored by runAt (unix ms)
//	:processing  zset  id scored by visibility deadline (unix ms)
//	:dead        hash  id -> job json
type Queue struct {
	rdb        *redis.Client
	prefix     string
	visibility time.Duration

	now func() time.Time
}

// claimScript moves stale processing entries back to ready, then pops the
// earliest due job into processing. Returns the job body or nil.
var claimScript = redis.NewScript(`
local stale = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, id in ipairs(stale) do
	redis.call('ZREM', KEYS[2], id)
	redis.call('ZADD', KEYS[1], ARGV[1], id)
end

local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
	return false
end

local id = ids[1]
local body = redis.call('HGET', KEYS[3], id)
redis.call('ZREM', KEYS[1], id)
if not body then
	return false
end

redis.call('ZADD', KEYS[2], ARGV[2], id)
return body
`)

func New(rdb *redis.Client, prefix string, visibility time.Duration) *Queue {
	if visibility <= 0 {
		visibility = 2 * time.Minute
	}
	return &Queue{
		rdb:        rdb,
		prefix:     prefix,
		visibility: visibility,
		now:        time.Now,
	}
}

func (q *Queue) key(name string) string { return q.prefix + ":" + name }

func score(t time.Time) float64 { return float64(t.UnixMilli()) }

func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

func (q *Queue) Enqueue(ctx context.Context, j jobs.Job) error {
	j.Status = jobs.JobPending

	body, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, q.key("jobs"), j.ID, body)
		p.ZAdd(ctx, q.key("ready"), redis.Z{Score: score(j.RunAt), Member: j.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", j.ID, err)
	}
	return nil
}

func (q *Queue) Claim(ctx context.Context) (jobs.Job, error) {
	now := q.now()

	res, err := claimScript.Run(ctx, q.rdb,
		[]string{q.key("ready"), q.key("processing"), q.key("jobs")},
		score(now), score(now.Add(q.visibility)),
	).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, queue.ErrEmpty
		}
		return jobs.Job{}, fmt.Errorf("claim: %w", err)
	}

	var j jobs.Job
	if err := json.Unmarshal([]byte(res), &j); err != nil {
		return jobs.Job{}, fmt.Errorf("decode job: %w", err)
	}

	j.Attempts++
	j.Status = jobs.JobProcessing
	j.UpdatedAt = now.UTC()

	// persist the attempt so a reclaimed job keeps its count
	if err := q.put(ctx, j); err != nil {
		return jobs.Job{}, err
	}
	return j, nil
}

func (q *Queue) Ack(ctx context.Context, id string) error {
	var removed *redis.IntCmd

	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.ZRem(ctx, q.key("processing"), id)
		p.HDel(ctx, q.key("jobs"), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	if removed.Val() == 0 {
		return queue.ErrNotFound
	}
	return nil
}

func (q *Queue) Retry(ctx context.Context, j jobs.Job, runAt time.Time, lastErr string) error {
	j.Status = jobs.JobPending
	j.RunAt = runAt.UTC()
	j.LastError = &lastErr
	j.UpdatedAt = q.now().UTC()

	body, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	var removed *redis.IntCmd
	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.ZRem(ctx, q.key("processing"), j.ID)
		p.HSet(ctx, q.key("jobs"), j.ID, body)
		p.ZAdd(ctx, q.key("ready"), redis.Z{Score: score(j.RunAt), Member: j.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("retry %s: %w", j.ID, err)
	}
	if removed.Val() == 0 {
		// reclaimed by someone else in the meantime; it is back in ready either way
		return queue.ErrNotFound
	}
	return nil
}

func (q *Queue) DeadLetter(ctx context.Context, j jobs.Job, lastErr string) error {
	j.Status = jobs.JobDead
	j.LastError = &lastErr
	j.UpdatedAt = q.now().UTC()

	body, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, q.key("processing"), j.ID)
		p.ZRem(ctx, q.key("ready"), j.ID)
		p.HDel(ctx, q.key("jobs"), j.ID)
		p.HSet(ctx, q.key("dead"), j.ID, body)
		return nil
	})
	if err != nil {
		return fmt.Errorf("dead-letter %s: %w", j.ID, err)
	}
	return nil
}

func (q *Queue) Dead(ctx context.Context) ([]jobs.Job, error) {
	vals, err := q.rdb.HVals(ctx, q.key("dead")).Result()
	if err != nil {
		return nil, fmt.Errorf("list dead: %w", err)
	}

	out := make([]jobs.Job, 0, len(vals))
	for _, v := range vals {
		var j jobs.Job
		if err := json.Unmarshal([]byte(v), &j); err != nil {
			continue
		}
		out = append(out, j)
	}
	queue.SortByUpdated(out)
	return out, nil
}

func (q *Queue) Requeue(ctx context.Context, id string) (jobs.Job, error) {
	body, err := q.rdb.HGet(ctx, q.key("dead"), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, queue.ErrNotFound
		}
		return jobs.Job{}, fmt.Errorf("requeue %s: %w", id, err)
	}

	var j jobs.Job
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return jobs.Job{}, fmt.Errorf("decode job: %w", err)
	}

	j = queue.Reset(j, q.now())
	fresh, err := json.Marshal(j)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("encode job: %w", err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, q.key("dead"), id)
		p.HSet(ctx, q.key("jobs"), id, fresh)
		p.ZAdd(ctx, q.key("ready"), redis.Z{Score: score(j.RunAt), Member: id})
		return nil
	})
	if err != nil {
		return jobs.Job{}, fmt.Errorf("requeue %s: %w", id, err)
	}
	return j, nil
}

func (q *Queue) Stats(ctx context.Context) (queue.Stats, error) {
	var ready, processing, dead *redis.IntCmd

	_, err := q.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		ready = p.ZCard(ctx, q.key("ready"))
		processing = p.ZCard(ctx, q.key("processing"))
		dead = p.HLen(ctx, q.key("dead"))
		return nil
	})
	if err != nil {
		return queue.Stats{}, fmt.Errorf("stats: %w", err)
	}

	return queue.Stats{
		Ready:      ready.Val(),
		Processing: processing.Val(),
		Dead:       dead.Val(),
	}, nil
}

func (q *Queue) put(ctx context.Context, j jobs.Job) error {
	body, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.rdb.HSet(ctx, q.key("jobs"), j.ID, body).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", j.ID, err)
	}
	return nil
}
