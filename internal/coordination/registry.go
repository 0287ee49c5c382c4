// Package coordination tracks the set of live gateway instances in
// Redis so operators can see which processes are serving websocket
// sessions. Multi-instance fanout itself rides on redis pub/sub and
// needs no coordination here.
package coordination

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	instancesKey = "gateway:instances"

	// staleAfter is how long an instance may miss heartbeats before it
	// is considered gone.
	staleAfter = 60 * time.Second
)

// InstanceRegistry tracks active gateway instances in Redis.
// Each instance writes periodic heartbeats to a shared hash.
type InstanceRegistry struct {
	redis      *redis.Client
	instanceID string
	heartbeat  time.Duration
	version    string
	sessions   func() int
}

// InstanceInfo holds the heartbeat payload of one gateway instance.
type InstanceInfo struct {
	InstanceID string `json:"instance_id"`
	Timestamp  int64  `json:"timestamp"`
	Version    string `json:"version"`
	Sessions   int    `json:"sessions"`
}

// NewInstanceRegistry creates a registry entry for this instance.
// instanceID must be unique per process (hostname or UUID). sessions
// reports the current local websocket session count and is sampled on
// every heartbeat.
func NewInstanceRegistry(redis *redis.Client, instanceID string, heartbeat time.Duration, version string, sessions func() int) *InstanceRegistry {
	return &InstanceRegistry{
		redis:      redis,
		instanceID: instanceID,
		heartbeat:  heartbeat,
		version:    version,
		sessions:   sessions,
	}
}

// Start begins the heartbeat loop. Registers immediately, then renews
// on the ticker interval. Blocks until ctx is cancelled, then
// unregisters and returns.
func (r *InstanceRegistry) Start(ctx context.Context) {
	r.register(ctx)

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.register(ctx)
		case <-ctx.Done():
			r.unregister()
			return
		}
	}
}

func (r *InstanceRegistry) register(ctx context.Context) {
	value := InstanceInfo{
		InstanceID: r.instanceID,
		Timestamp:  time.Now().Unix(),
		Version:    r.version,
	}
	if r.sessions != nil {
		value.Sessions = r.sessions()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	r.redis.HSet(ctx, instancesKey, r.instanceID, data)
}

// unregister removes this instance from the registry during graceful
// shutdown.
func (r *InstanceRegistry) unregister() {
	ctx := context.Background()
	r.redis.HDel(ctx, instancesKey, r.instanceID)
}

// GetActiveInstances returns instance IDs with a heartbeat inside the
// staleness window.
func (r *InstanceRegistry) GetActiveInstances(ctx context.Context) ([]string, error) {
	instances, err := r.redis.HGetAll(ctx, instancesKey).Result()
	if err != nil {
		return nil, err
	}

	active := []string{}
	now := time.Now().Unix()

	for instanceID, data := range instances {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}

		if now-info.Timestamp < int64(staleAfter.Seconds()) {
			active = append(active, instanceID)
		}
	}

	return active, nil
}

// GetInstanceInfo returns the heartbeat payloads of all active
// instances.
func (r *InstanceRegistry) GetInstanceInfo(ctx context.Context) ([]InstanceInfo, error) {
	instances, err := r.redis.HGetAll(ctx, instancesKey).Result()
	if err != nil {
		return nil, err
	}

	infos := []InstanceInfo{}
	now := time.Now().Unix()

	for _, data := range instances {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}

		if now-info.Timestamp < int64(staleAfter.Seconds()) {
			infos = append(infos, info)
		}
	}

	return infos, nil
}
