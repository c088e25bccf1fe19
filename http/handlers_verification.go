package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/influencechain/http/api"
	"github.com/brojonat/influencechain/icb"
	"github.com/brojonat/influencechain/internal/config"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// handleStartVerification starts tracking a submission's verification. The
// workflow id is derived from the submission, so a second call attaches to
// the run already in progress instead of starting another.
func handleStartVerification(l *slog.Logger, deps Deps, tcfg config.TemporalConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.PathValue("id"))
		if !ok {
			writeBadRequestError(w, errInvalidSubmissionID)
			return
		}
		workflowID := icb.VerificationWorkflowID(id)
		opts := client.StartWorkflowOptions{
			ID:                                       workflowID,
			TaskQueue:                                tcfg.TaskQueue,
			WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
			WorkflowExecutionErrorWhenAlreadyStarted: false,
		}
		input := icb.VerificationWorkflowInput{
			SubmissionID: id,
			PollInterval: tcfg.PollInterval,
			Timeout:      tcfg.Timeout,
		}
		run, err := deps.Temporal.ExecuteWorkflow(r.Context(), opts, icb.SubmissionVerificationWorkflow, input)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to start workflow %s: %w", workflowID, err), "Failed to start verification")
			return
		}
		l.Info("verification workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
		writeJSONResponse(w, api.VerificationResponse{
			WorkflowID: run.GetID(),
			RunID:      run.GetRunID(),
		}, http.StatusAccepted)
	}
}

// handleGetVerification returns the job as last reported by the workflow's
// status query.
func handleGetVerification(l *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.PathValue("id"))
		if !ok {
			writeBadRequestError(w, errInvalidSubmissionID)
			return
		}
		workflowID := icb.VerificationWorkflowID(id)

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		resp, err := deps.Temporal.QueryWorkflow(ctx, workflowID, "", icb.VerificationStatusQuery)
		if err != nil {
			var notFoundErr *serviceerror.NotFound
			if errors.As(err, &notFoundErr) {
				writeNotFoundError(w)
				return
			}
			writeInternalError(l, w, fmt.Errorf("failed to query workflow %s: %w", workflowID, err), "Failed to fetch verification status")
			return
		}

		var job icb.VerificationJob
		if err := resp.Get(&job); err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to decode query result for workflow %s: %w", workflowID, err), "Failed to fetch verification status")
			return
		}
		writeJSONResponse(w, api.VerificationResponse{WorkflowID: workflowID, Job: &job}, http.StatusOK)
	}
}
