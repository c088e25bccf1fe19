package icb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	VerificationStatusQuery = "verification_status"

	DefaultVerificationPollInterval = 15 * time.Second
	DefaultVerificationTimeout      = 30 * time.Minute

	errTypeSubmissionNotFound  = "SUBMISSION_NOT_FOUND"
	errTypeDecode              = "DECODE_ERROR"
	errTypeVerificationTimeout = "VERIFICATION_TIMEOUT"
)

// JobState is the lifecycle of a verification job.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// VerificationStep is one stage shown to the creator while a submission is
// being verified.
type VerificationStep struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobState   `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func verificationSteps() []VerificationStep {
	return []VerificationStep{
		{Name: "Content Analysis", Description: "AI analyzing post content, hashtags, and mentions", Status: JobPending},
		{Name: "Requirement Verification", Description: "Checking compliance with campaign requirements", Status: JobPending},
		{Name: "Quality Assessment", Description: "Evaluating content quality and authenticity", Status: JobPending},
		{Name: "Final Review", Description: "Generating verification result and payment authorization", Status: JobPending},
	}
}

// VerificationJob is the queryable state of SubmissionVerificationWorkflow.
type VerificationJob struct {
	SubmissionID uint64             `json:"submissionId"`
	CampaignID   uint64             `json:"campaignId"`
	Creator      string             `json:"creator"`
	PostURL      string             `json:"postUrl"`
	State        JobState           `json:"state"`
	CurrentStep  int                `json:"currentStep"`
	Steps        []VerificationStep `json:"steps"`
	Score        int64              `json:"score"`
	Reason       string             `json:"reason,omitempty"`
	StartedAt    time.Time          `json:"startedAt"`
	FinishedAt   *time.Time         `json:"finishedAt,omitempty"`
}

func (j *VerificationJob) completeStep(i int, at time.Time) {
	if i < 0 || i >= len(j.Steps) || j.Steps[i].Status == JobCompleted {
		return
	}
	j.Steps[i].Status = JobCompleted
	j.Steps[i].CompletedAt = &at
	if i+1 < len(j.Steps) {
		j.CurrentStep = i + 1
		j.Steps[i+1].Status = JobProcessing
	}
}

func (j *VerificationJob) finish(state JobState, at time.Time) {
	j.State = state
	j.FinishedAt = &at
}

type VerificationWorkflowInput struct {
	SubmissionID uint64        `json:"submission_id"`
	PollInterval time.Duration `json:"poll_interval"`
	Timeout      time.Duration `json:"timeout"`
}

// VerificationWorkflowID is the one workflow id per submission.
func VerificationWorkflowID(submissionID uint64) string {
	return fmt.Sprintf("verify-submission-%d", submissionID)
}

// SubmissionVerificationWorkflow tracks one submission until the AI
// verification contract records a verdict or the timeout elapses. Each poll
// that finds no verdict advances the displayed step, but Final Review only
// completes with a verdict.
// A timeout returns the job state with an error, so the run closes failed
// and the same workflow id can be started again.
func SubmissionVerificationWorkflow(ctx workflow.Context, input VerificationWorkflowInput) (VerificationJob, error) {
	logger := workflow.GetLogger(ctx)
	if input.PollInterval <= 0 {
		input.PollInterval = DefaultVerificationPollInterval
	}
	if input.Timeout <= 0 {
		input.Timeout = DefaultVerificationTimeout
	}

	job := VerificationJob{
		SubmissionID: input.SubmissionID,
		State:        JobPending,
		Steps:        verificationSteps(),
		StartedAt:    workflow.Now(ctx),
	}
	if err := workflow.SetQueryHandler(ctx, VerificationStatusQuery, func() (VerificationJob, error) {
		return job, nil
	}); err != nil {
		return job, fmt.Errorf("failed to register query handler: %w", err)
	}

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var a *Activities
	var sub SubmissionSnapshot
	if err := workflow.ExecuteActivity(ctx, a.FetchSubmission, input.SubmissionID).Get(ctx, &sub); err != nil {
		logger.Error("failed to fetch submission", "submission_id", input.SubmissionID, "error", err)
		job.Steps[0].Status = JobFailed
		job.Reason = "submission could not be read"
		job.finish(JobFailed, workflow.Now(ctx))
		return job, err
	}
	job.CampaignID = sub.CampaignID
	job.Creator = sub.Creator
	job.PostURL = sub.PostURL
	job.State = JobProcessing
	job.Steps[0].Status = JobProcessing
	job.completeStep(0, workflow.Now(ctx))

	deadline := workflow.Now(ctx).Add(input.Timeout)
	for {
		var v VerificationSnapshot
		if err := workflow.ExecuteActivity(ctx, a.FetchVerification, input.SubmissionID).Get(ctx, &v); err != nil {
			logger.Error("failed to fetch verification", "submission_id", input.SubmissionID, "error", err)
			job.Steps[job.CurrentStep].Status = JobFailed
			job.Reason = "verification record could not be read"
			job.finish(JobFailed, workflow.Now(ctx))
			return job, err
		}

		now := workflow.Now(ctx)
		switch v.Status {
		case evm.VerificationVerified:
			for i := range job.Steps {
				job.completeStep(i, now)
			}
			job.Score = v.Score
			job.Reason = v.Reason
			job.finish(JobCompleted, now)
			logger.Info("submission verified", "submission_id", input.SubmissionID, "score", v.Score)
			return job, nil
		case evm.VerificationRejected:
			last := len(job.Steps) - 1
			for i := 0; i < last; i++ {
				job.completeStep(i, now)
			}
			job.Steps[last].Status = JobFailed
			job.Score = v.Score
			job.Reason = v.Reason
			job.finish(JobFailed, now)
			logger.Info("submission rejected", "submission_id", input.SubmissionID, "reason", v.Reason)
			return job, nil
		}

		if !now.Before(deadline) {
			job.Steps[job.CurrentStep].Status = JobFailed
			job.Reason = "verification timed out"
			job.finish(JobFailed, now)
			logger.Warn("verification timed out", "submission_id", input.SubmissionID)
			return job, temporal.NewApplicationError("verification timed out", errTypeVerificationTimeout)
		}
		if job.CurrentStep < len(job.Steps)-1 {
			job.completeStep(job.CurrentStep, now)
		}
		if err := workflow.Sleep(ctx, input.PollInterval); err != nil {
			return job, err
		}
	}
}

// SubmissionSnapshot is the part of a submission the workflow reports.
type SubmissionSnapshot struct {
	CampaignID uint64 `json:"campaign_id"`
	Creator    string `json:"creator"`
	PostURL    string `json:"post_url"`
	Status     uint8  `json:"status"`
}

type VerificationSnapshot struct {
	Status evm.VerificationStatus `json:"status"`
	Score  int64                  `json:"score"`
	Reason string                 `json:"reason"`
}

// Activities reads verification progress from the chain.
type Activities struct {
	reader evm.Reader
}

func NewActivities(r evm.Reader) *Activities {
	return &Activities{reader: r}
}

func (a *Activities) FetchSubmission(ctx context.Context, submissionID uint64) (SubmissionSnapshot, error) {
	logger := activity.GetLogger(ctx)
	rec, err := a.reader.GetSubmission(ctx, submissionID)
	if err != nil {
		return SubmissionSnapshot{}, classifyChainError(err)
	}
	if rec.Creator == (common.Address{}) {
		return SubmissionSnapshot{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("submission %d does not exist", submissionID), errTypeSubmissionNotFound, nil)
	}
	logger.Debug("fetched submission", "submission_id", submissionID, "status", rec.Status)
	return SubmissionSnapshot{
		CampaignID: uint64(clampInt64(rec.CampaignID)),
		Creator:    rec.Creator.Hex(),
		PostURL:    rec.PostURL,
		Status:     rec.Status,
	}, nil
}

func (a *Activities) FetchVerification(ctx context.Context, submissionID uint64) (VerificationSnapshot, error) {
	rec, err := a.reader.GetVerification(ctx, submissionID)
	if err != nil {
		return VerificationSnapshot{}, classifyChainError(err)
	}
	return VerificationSnapshot{
		Status: evm.VerificationStatus(rec.Status),
		Score:  clampInt64(rec.Score),
		Reason: rec.Reason,
	}, nil
}

// classifyChainError marks decode failures non-retryable.
func classifyChainError(err error) error {
	var de *evm.DecodeError
	if errors.As(err, &de) {
		return temporal.NewNonRetryableApplicationError(de.Error(), errTypeDecode, err)
	}
	return err
}
