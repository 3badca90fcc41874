// internal/services/services.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/metrics"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

// Deps are the collaborators shared by the workflow services.
type Deps struct {
	Store     store.Store
	Sequencer store.Sequencer
	Notifier  *NotificationService
	Clock     clock.PassiveClock
	Workflow  config.WorkflowConfig
	Metrics   *metrics.Metrics
}

// errSkip aborts a store mutation without reporting a failure.
var errSkip = errors.New("skip")

func (d Deps) now() time.Time {
	return d.Clock.Now()
}

func (d Deps) nextNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	seq, err := d.Sequencer.Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", prefix, err)
	}
	return workflow.FormatNumber(prefix, now.Year(), seq), nil
}

