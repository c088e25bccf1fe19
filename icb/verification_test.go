package icb

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

var testSubmission = SubmissionSnapshot{
	CampaignID: 4,
	Creator:    "0x1111111111111111111111111111111111111111",
	PostURL:    "https://www.instagram.com/p/abc123",
}

func newVerificationEnv() *testsuite.TestWorkflowEnvironment {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{})
	return env
}

func TestSubmissionVerificationWorkflow(t *testing.T) {
	var a *Activities
	input := VerificationWorkflowInput{SubmissionID: 21, PollInterval: time.Minute, Timeout: 10 * time.Minute}

	t.Run("Verified", func(t *testing.T) {
		env := newVerificationEnv()
		env.OnActivity(a.FetchSubmission, mock.Anything, uint64(21)).Return(testSubmission, nil)
		env.OnActivity(a.FetchVerification, mock.Anything, uint64(21)).Return(VerificationSnapshot{Status: evm.VerificationPending}, nil).Times(2)
		env.OnActivity(a.FetchVerification, mock.Anything, uint64(21)).Return(VerificationSnapshot{Status: evm.VerificationVerified, Score: 92, Reason: "looks good"}, nil)

		env.ExecuteWorkflow(SubmissionVerificationWorkflow, input)
		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var job VerificationJob
		require.NoError(t, env.GetWorkflowResult(&job))
		assert.Equal(t, JobCompleted, job.State)
		assert.Equal(t, int64(92), job.Score)
		assert.Equal(t, uint64(4), job.CampaignID)
		for _, s := range job.Steps {
			assert.Equal(t, JobCompleted, s.Status, s.Name)
			assert.NotNil(t, s.CompletedAt)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		env := newVerificationEnv()
		env.OnActivity(a.FetchSubmission, mock.Anything, uint64(21)).Return(testSubmission, nil)
		env.OnActivity(a.FetchVerification, mock.Anything, uint64(21)).Return(VerificationSnapshot{Status: evm.VerificationRejected, Reason: "missing hashtag"}, nil)

		env.ExecuteWorkflow(SubmissionVerificationWorkflow, input)
		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var job VerificationJob
		require.NoError(t, env.GetWorkflowResult(&job))
		assert.Equal(t, JobFailed, job.State)
		assert.Equal(t, "missing hashtag", job.Reason)
		assert.Equal(t, JobCompleted, job.Steps[2].Status)
		assert.Equal(t, JobFailed, job.Steps[3].Status)
	})

	t.Run("TimedOut", func(t *testing.T) {
		env := newVerificationEnv()
		env.OnActivity(a.FetchSubmission, mock.Anything, uint64(21)).Return(testSubmission, nil)
		env.OnActivity(a.FetchVerification, mock.Anything, uint64(21)).Return(VerificationSnapshot{Status: evm.VerificationPending}, nil)

		env.ExecuteWorkflow(SubmissionVerificationWorkflow, input)
		require.True(t, env.IsWorkflowCompleted())

		// The run must close as failed so the workflow id can be started
		// again once the verifier catches up.
		err := env.GetWorkflowError()
		require.Error(t, err)
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errTypeVerificationTimeout, appErr.Type())

		res, err := env.QueryWorkflow(VerificationStatusQuery)
		require.NoError(t, err)
		var job VerificationJob
		require.NoError(t, res.Get(&job))
		assert.Equal(t, JobFailed, job.State)
		assert.Equal(t, "verification timed out", job.Reason)
		assert.Equal(t, JobFailed, job.Steps[3].Status)
	})

	t.Run("QueryWhilePolling", func(t *testing.T) {
		env := newVerificationEnv()
		env.OnActivity(a.FetchSubmission, mock.Anything, uint64(21)).Return(testSubmission, nil)
		env.OnActivity(a.FetchVerification, mock.Anything, uint64(21)).Return(VerificationSnapshot{Status: evm.VerificationPending}, nil)

		env.RegisterDelayedCallback(func() {
			res, err := env.QueryWorkflow(VerificationStatusQuery)
			require.NoError(t, err)
			var job VerificationJob
			require.NoError(t, res.Get(&job))
			assert.Equal(t, JobProcessing, job.State)
			assert.Equal(t, testSubmission.PostURL, job.PostURL)
			assert.Equal(t, JobCompleted, job.Steps[0].Status)
		}, 90*time.Second)

		env.ExecuteWorkflow(SubmissionVerificationWorkflow, input)
		require.True(t, env.IsWorkflowCompleted())
	})

	t.Run("MissingSubmission", func(t *testing.T) {
		env := newVerificationEnv()
		env.OnActivity(a.FetchSubmission, mock.Anything, uint64(21)).Return(SubmissionSnapshot{},
			temporal.NewNonRetryableApplicationError("submission 21 does not exist", errTypeSubmissionNotFound, nil))

		env.ExecuteWorkflow(SubmissionVerificationWorkflow, input)
		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errTypeSubmissionNotFound, appErr.Type())
	})
}

func TestActivities(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}

	t.Run("FetchSubmission", func(t *testing.T) {
		r := new(evm.MockReader)
		r.On("GetSubmission", mock.Anything, uint64(5)).Return(evm.SubmissionRecord{
			CampaignID:  big.NewInt(2),
			Creator:     common.HexToAddress(testSubmission.Creator),
			PostURL:     "https://x.com/a/status/1",
			Status:      1,
			SubmittedAt: big.NewInt(1),
			VerifiedAt:  big.NewInt(2),
		}, nil)
		env := testSuite.NewTestActivityEnvironment()
		acts := NewActivities(r)
		env.RegisterActivity(acts)

		val, err := env.ExecuteActivity(acts.FetchSubmission, uint64(5))
		require.NoError(t, err)
		var got SubmissionSnapshot
		require.NoError(t, val.Get(&got))
		assert.Equal(t, uint64(2), got.CampaignID)
		assert.Equal(t, "https://x.com/a/status/1", got.PostURL)
	})

	t.Run("FetchSubmission_NotFound", func(t *testing.T) {
		r := new(evm.MockReader)
		r.On("GetSubmission", mock.Anything, uint64(5)).Return(evm.SubmissionRecord{}, nil)
		env := testSuite.NewTestActivityEnvironment()
		acts := NewActivities(r)
		env.RegisterActivity(acts)

		_, err := env.ExecuteActivity(acts.FetchSubmission, uint64(5))
		require.Error(t, err)
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("FetchVerification_DecodeError", func(t *testing.T) {
		r := new(evm.MockReader)
		r.On("GetVerification", mock.Anything, uint64(5)).Return(evm.VerificationRecord{}, &evm.DecodeError{Method: "getVerification", Reason: "short"})
		env := testSuite.NewTestActivityEnvironment()
		acts := NewActivities(r)
		env.RegisterActivity(acts)

		_, err := env.ExecuteActivity(acts.FetchVerification, uint64(5))
		require.Error(t, err)
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.True(t, appErr.NonRetryable())
		assert.Equal(t, errTypeDecode, appErr.Type())
	})

	t.Run("TransientErrorsStayRetryable", func(t *testing.T) {
		err := classifyChainError(errors.New("timeout"))
		var appErr *temporal.ApplicationError
		assert.False(t, errors.As(err, &appErr))
	})
}
