package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidshelf/backend/internal/models"
)

func TestActivityService_LogAsyncAndList(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(db, 10)
	t.Cleanup(svc.Close)
	ctx := context.Background()

	alice := createUser(t, db, "alice", models.UserRolePublisher)
	bob := createUser(t, db, "bob", models.UserRolePublisher)

	svc.LogAsync(ActivityEntry{UserID: userPtr(alice.ID), Action: ActionLogin})
	svc.LogAsync(ActivityEntry{UserID: userPtr(alice.ID), Action: ActionCreateFolder, TargetType: "folder", TargetID: "3"})
	svc.LogAsync(ActivityEntry{UserID: userPtr(bob.ID), Action: ActionLogin})
	svc.Flush()

	rows, total, err := svc.List(ctx, ActivityFilter{UserID: userPtr(alice.ID), Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "alice", row.Username)
		assert.Nil(t, row.User)
	}

	rows, total, err = svc.List(ctx, ActivityFilter{Action: ActionLogin, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestActivityService_DropsWhenQueueIsFull(t *testing.T) {
	db := setupServiceDB(t)
	svc := &ActivityService{DB: db, queue: make(chan models.ActivityLog, 1), closed: make(chan struct{})}

	svc.LogAsync(ActivityEntry{Action: ActionLogin})
	svc.LogAsync(ActivityEntry{Action: ActionLogin})
	assert.Len(t, svc.queue, 1, "the second entry is dropped, not blocked on")

	go svc.processQueue()
	svc.Close()

	var count int64
	db.Model(&models.ActivityLog{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestActivityService_LogAfterCloseIsDropped(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(db, 100)
	ctx := context.Background()

	alice := createUser(t, db, "alice", models.UserRolePublisher)
	svc.LogAsync(ActivityEntry{UserID: userPtr(alice.ID), Action: ActionLogin})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				svc.LogAsync(ActivityEntry{UserID: userPtr(alice.ID), Action: ActionSync})
			}
		}()
	}
	svc.Close()
	wg.Wait()

	require.NotPanics(t, func() {
		svc.LogAsync(ActivityEntry{UserID: userPtr(alice.ID), Action: ActionCreatePost})
		svc.Close()
	})

	_, total, err := svc.List(ctx, ActivityFilter{Action: ActionLogin, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "entries queued before Close are written")

	_, total, err = svc.List(ctx, ActivityFilter{Action: ActionCreatePost, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestActivityService_Summary(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(db, 10)
	t.Cleanup(svc.Close)
	ctx := context.Background()

	alice := createUser(t, db, "alice", models.UserRolePublisher)
	bob := createUser(t, db, "bob", models.UserRolePublisher)

	logs := []models.ActivityLog{
		{UserID: userPtr(alice.ID), Action: ActionLogin, CreatedAt: fixedNow.Add(-1 * time.Hour)},
		{UserID: userPtr(alice.ID), Action: ActionUploadLocal, CreatedAt: fixedNow.Add(-26 * time.Hour)},
		{UserID: userPtr(alice.ID), Action: ActionUploadLocal, CreatedAt: fixedNow.Add(-27 * time.Hour)},
		{UserID: userPtr(bob.ID), Action: ActionLogin, CreatedAt: fixedNow.Add(-2 * time.Hour)},
		{UserID: userPtr(alice.ID), Action: ActionLogin, CreatedAt: fixedNow.Add(-30 * 24 * time.Hour)},
	}
	require.NoError(t, db.Create(&logs).Error)

	summary, err := svc.Summary(ctx, 7, userPtr(alice.ID), false, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[string]int{ActionLogin: 1, ActionUploadLocal: 2}, summary.ByAction)
	assert.Equal(t, []DailyCount{{Day: "2026-03-13", Count: 2}, {Day: "2026-03-14", Count: 1}}, summary.DailyCounts)
	assert.Nil(t, summary.OverallDailyCounts)
	require.Len(t, summary.Recent, 3)
	assert.Equal(t, ActionLogin, summary.Recent[0].Action)

	overall, err := svc.Summary(ctx, 500, nil, true, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 90, overall.WindowDays)
	assert.Equal(t, 5, overall.Total)
	assert.NotEmpty(t, overall.OverallDailyCounts)
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, ClampDays(0))
	assert.Equal(t, 1, ClampDays(-4))
	assert.Equal(t, 7, ClampDays(7))
	assert.Equal(t, 90, ClampDays(91))
}
