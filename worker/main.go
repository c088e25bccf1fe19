package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/icb"
	"github.com/brojonat/influencechain/internal/config"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Register adds the verification workflow and its activities to w.
func Register(w worker.Registry, r evm.Reader) {
	activities := icb.NewActivities(r)
	w.RegisterWorkflow(icb.SubmissionVerificationWorkflow)
	w.RegisterActivity(activities.FetchSubmission)
	w.RegisterActivity(activities.FetchVerification)
}

// RunWorker polls the configured task queue until ctx is cancelled.
func RunWorker(ctx context.Context, l *slog.Logger, tcfg config.TemporalConfig, r evm.Reader) error {
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  tcfg.Address,
		Namespace: tcfg.Namespace,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize temporal client: %w", err)
	}
	defer c.Close()

	if tcfg.TaskQueue == "" {
		return fmt.Errorf("task queue not set")
	}
	w := worker.New(c, tcfg.TaskQueue, worker.Options{})
	Register(w, r)

	stop := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	l.Info("Starting worker", "TaskQueue", tcfg.TaskQueue)
	err = w.Run(stop)
	l.Info("Worker stopped")
	return err
}

// CheckConnection dials Temporal and runs a health check, for container
// probes.
func CheckConnection(ctx context.Context, l *slog.Logger, tcfg config.TemporalConfig) error {
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  tcfg.Address,
		Namespace: tcfg.Namespace,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize temporal client: %w", err)
	}
	defer c.Close()

	if _, err := c.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return fmt.Errorf("temporal health check failed: %w", err)
	}
	l.Info("temporal connection ok", "address", tcfg.Address, "namespace", tcfg.Namespace)
	return nil
}
