package llm

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-companion/internal/api"
	"github.com/dileep-u-k/weather-companion/internal/tools"
)

// Backend status values kept in a profile.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
)

// latencyAlpha weights the newest sample in the latency moving average.
const latencyAlpha = 0.1

// BackendProfile tracks the reliability and token use of one backend model.
type BackendProfile struct {
	Model                 string    `json:"model"`
	AvgLatencyMS          int64     `json:"avg_latency_ms"`
	Status                string    `json:"status"`
	ErrorRate             float64   `json:"error_rate"`
	TotalSuccesses        int64     `json:"total_successes"`
	TotalFailures         int64     `json:"total_failures"`
	TotalPromptTokens     int64     `json:"total_prompt_tokens"`
	TotalCompletionTokens int64     `json:"total_completion_tokens"`
	LastCall              time.Time `json:"last_call"`
}

// Profiler records backend call outcomes in a Redis hash per model.
type Profiler struct {
	rdb *redis.Client
}

func NewProfiler(rdb *redis.Client) *Profiler {
	return &Profiler{rdb: rdb}
}

func (p *Profiler) profileKey(model string) string {
	return fmt.Sprintf("backend_profile:%s", model)
}

// Profile returns the recorded profile, or an empty online profile for a
// model that has not been called yet.
func (p *Profiler) Profile(ctx context.Context, model string) (*BackendProfile, error) {
	data, err := p.rdb.HGetAll(ctx, p.profileKey(model)).Result()
	if err != nil {
		return nil, err
	}

	profile := &BackendProfile{Model: model, Status: StatusOnline}
	if len(data) == 0 {
		return profile, nil
	}
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	if s := data["status"]; s != "" {
		profile.Status = s
	}
	profile.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	profile.TotalPromptTokens, _ = strconv.ParseInt(data["total_prompt_tokens"], 10, 64)
	profile.TotalCompletionTokens, _ = strconv.ParseInt(data["total_completion_tokens"], 10, 64)
	profile.LastCall, _ = time.Parse(time.RFC3339Nano, data["last_call"])
	return profile, nil
}

func (p *Profiler) RecordSuccess(ctx context.Context, model string, latency time.Duration, usage api.Usage) {
	key := p.profileKey(model)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "avg_latency_ms").Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		next := latency.Milliseconds()
		if err == nil {
			next = int64(latencyAlpha*float64(next) + (1-latencyAlpha)*float64(current))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", next)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", model, err)
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_prompt_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_completion_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "status", StatusOnline, "last_call", time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("Error in success update pipeline for %s: %v", model, err)
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.updateErrorRate(ctx, key, successes.Val(), totalFailures)
}

func (p *Profiler) RecordFailure(ctx context.Context, model string) {
	key := p.profileKey(model)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "status", StatusDegraded, "last_call", time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("Error in failure update pipeline for %s: %v", model, err)
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.updateErrorRate(ctx, key, totalSuccesses, failures.Val())
}

func (p *Profiler) updateErrorRate(ctx context.Context, key string, successes, failures int64) {
	if total := successes + failures; total > 0 {
		p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total))
	}
}

// ProfiledClient wraps a backend and records every Generate call.
type ProfiledClient struct {
	LLMClient
	profiler *Profiler
	model    string
}

var _ LLMClient = (*ProfiledClient)(nil)

// NewProfiledClient records calls under config.Model, falling back to model.
func NewProfiledClient(client LLMClient, profiler *Profiler, model string) *ProfiledClient {
	return &ProfiledClient{LLMClient: client, profiler: profiler, model: model}
}

func (c *ProfiledClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	model := c.model
	if config != nil && config.Model != "" {
		model = config.Model
	}

	start := time.Now()
	result, err := c.LLMClient.Generate(ctx, messages, config, availableTools)
	// Recording must not be cut short by a cancelled request.
	recordCtx := context.WithoutCancel(ctx)
	if err != nil {
		c.profiler.RecordFailure(recordCtx, model)
		return nil, err
	}
	c.profiler.RecordSuccess(recordCtx, model, time.Since(start), result.Usage)
	return result, nil
}
