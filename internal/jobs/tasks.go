// Package jobs runs background work on the asynq queue.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"go-hardware-pos/internal/ai"
	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskForecastGenerate regenerates the AI forecast of one branch.
	TaskForecastGenerate = "forecast:generate"
)

// ForecastPayload names the branch to forecast.
type ForecastPayload struct {
	BranchID uint `json:"branch_id"`
}

// NewForecastTask constructs an Asynq task.
func NewForecastTask(branchID uint) (*asynq.Task, error) {
	data, err := json.Marshal(ForecastPayload{BranchID: branchID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskForecastGenerate, data), nil
}

// ForecastGenerator is the part of ai.Forecaster the job needs.
type ForecastGenerator interface {
	Generate(ctx context.Context, branchID uint) (ai.Summary, error)
}

// ForecastHandler processes TaskForecastGenerate tasks.
type ForecastHandler struct {
	gen ForecastGenerator
}

func NewForecastHandler(gen ForecastGenerator) *ForecastHandler {
	return &ForecastHandler{gen: gen}
}

func (h *ForecastHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := logger.WithComponent("jobs")

	var payload ForecastPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.BranchID == 0 {
		log.Error().Str("payload", string(t.Payload())).Msg("bad forecast payload")
		return fmt.Errorf("jobs: bad forecast payload: %w", asynq.SkipRetry)
	}

	sum, err := h.gen.Generate(ctx, payload.BranchID)
	if err != nil {
		// A deleted branch will never succeed.
		if apperr.Is(err, apperr.KindNotFound) {
			log.Warn().Uint("branch_id", payload.BranchID).Msg("forecast skipped, branch not found")
			return fmt.Errorf("jobs: %v: %w", err, asynq.SkipRetry)
		}
		log.Error().Err(err).Uint("branch_id", payload.BranchID).Msg("forecast generation failed")
		return err
	}

	log.Info().Uint("branch_id", payload.BranchID).Int("chars", len(sum.Text)).Msg("forecast refreshed")
	return nil
}
