package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TaskState 队列侧记录的任务状态
type TaskState string

const (
	StatePending TaskState = "PENDING"
	StateStarted TaskState = "STARTED"
	StateSuccess TaskState = "SUCCESS"
	StateFailure TaskState = "FAILURE"
)

var ErrTaskNotFound = errors.New("task not found in registry")

const registryKeyPrefix = "findoc:task:"

// TaskRecord 注册表中的一条记录
type TaskRecord struct {
	State     TaskState `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry 任务状态注册表，数据库不可用时状态查询以此兜底
type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRegistry(client *redis.Client, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Registry{client: client, ttl: ttl}
}

// SetState 写入状态并刷新过期时间
func (r *Registry) SetState(ctx context.Context, jobID string, state TaskState, errMsg string) error {
	data, err := json.Marshal(&TaskRecord{State: state, Error: errMsg, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}
	return r.client.Set(ctx, registryKeyPrefix+jobID, data, r.ttl).Err()
}

// Get 查询任务记录
func (r *Registry) Get(ctx context.Context, jobID string) (*TaskRecord, error) {
	data, err := r.client.Get(ctx, registryKeyPrefix+jobID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to read task record: %w", err)
	}

	var rec TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task record: %w", err)
	}
	return &rec, nil
}
