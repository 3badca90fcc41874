//go:build integration

// internal/notify/inapp_integration_test.go
package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/database"
)

func TestInAppDispatcherIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fire_noc_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	d := NewInAppDispatcher(db)
	citizen := uuid.New()
	inspector := uuid.New()

	require.NoError(t, d.Notify(ctx, ToUser(citizen, KindStatusUpdate, "Update", "under review")))
	require.NoError(t, d.Notify(ctx, ToStaff(KindNewApplication, "New Application", "FD2025000001").
		With(map[string]any{"number": "FD2025000001"})))

	rows, total, err := d.Inbox(ctx, citizen, false, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Update", rows[0].Title)

	_, total, err = d.Inbox(ctx, inspector, true, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	require.NoError(t, d.MarkRead(ctx, rows[0].ID, citizen, time.Now()))
	err = d.MarkRead(ctx, rows[0].ID, citizen, time.Now())
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}
