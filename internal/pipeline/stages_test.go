package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finxtract/finxtract/internal/common"
	"github.com/finxtract/finxtract/internal/model"
)

func TestRunStage_CancelledContextAbortsBeforeStageRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := model.NewAgentState("run1", model.DocumentMetadata{DocumentID: "doc1"})
	called := false

	err := runStage(ctx, "some_stage", state, func(ctx context.Context, s *model.AgentState) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, common.ErrorCancelled, state.Errors[0].Kind)
}

func TestRunStage_UncancelledContextRunsStage(t *testing.T) {
	state := model.NewAgentState("run1", model.DocumentMetadata{DocumentID: "doc1"})
	called := false

	err := runStage(context.Background(), "some_stage", state, func(ctx context.Context, s *model.AgentState) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, state.Errors)
}
