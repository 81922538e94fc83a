// Package pipeline threads one AgentState through the ordered extraction
// stages with a single conditional branch: a document whose validation
// pass found no conflicts skips adjudication entirely and proceeds
// straight to derivation.
package pipeline

import (
	"context"
	"time"

	"github.com/finxtract/finxtract/internal/common"
	"github.com/finxtract/finxtract/internal/model"
)

// Stage is one pipeline step: it mutates its own slot of state and
// returns an error, which runStage records alongside the stage's timing.
// Stages never read each other's intermediate results except through state.
type Stage func(ctx context.Context, state *model.AgentState) error

// runStage times and error-records one stage's execution. A stage error
// is always recorded on state, but returned to the caller only when its
// kind is ErrorInputInvalid; every other kind yields nil so the run
// continues. A cancelled ctx is likewise returned, checked before the
// stage is even entered so cancellation takes effect at the next stage
// boundary rather than mid-stage.
func runStage(ctx context.Context, name string, state *model.AgentState, stage Stage) error {
	if err := ctx.Err(); err != nil {
		stageErr := common.NewStageError(name, common.ErrorCancelled, "run cancelled before stage started", err)
		state.RecordError(stageErr)
		return stageErr
	}

	start := time.Now()
	err := stage(ctx, state)
	state.RecordTiming(name, time.Since(start))

	if err != nil {
		kind := common.ErrorBackendFailure
		if stageErr, ok := err.(common.StageError); ok {
			kind = stageErr.Kind
			state.RecordError(stageErr)
		} else {
			state.RecordError(common.NewStageError(name, kind, err.Error(), err))
		}
		if kind == common.ErrorInputInvalid {
			return err
		}
	}
	return nil
}
