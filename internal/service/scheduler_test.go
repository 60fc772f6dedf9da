package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodshare_web/internal/models"
)

func TestSweepExpiresOverdueConfirmations(t *testing.T) {
	f := newHandoffFixture(t)
	item := f.seedItem(t, 1)

	_, err := f.svc.Request(item.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Confirm(item.ID, 1)
	require.NoError(t, err)

	scheduler := NewExpiryScheduler(f.notifs, f.svc, f.clock, time.Hour)

	// 期限未到，掃描不處理任何通知
	require.Equal(t, 0, scheduler.Sweep())

	f.clock.Advance(25 * time.Hour)
	require.Equal(t, 1, scheduler.Sweep())

	stored, err := f.items.FindByID(item.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemAvailable, stored.Status)
	require.Equal(t, uint(0), stored.CharityID)
	require.Equal(t, 1, f.notifs.countByType(models.NotificationReminder))

	// 重跑同一次掃描不會重複處理
	require.Equal(t, 0, scheduler.Sweep())
	require.Equal(t, 1, f.notifs.countByType(models.NotificationReminder))
}

func TestSweepSkipsAlreadyConfirmed(t *testing.T) {
	f := newHandoffFixture(t)
	item := f.seedItem(t, 1)

	_, err := f.svc.Request(item.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Confirm(item.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceipt(item.ID, 2)
	require.NoError(t, err)

	scheduler := NewExpiryScheduler(f.notifs, f.svc, f.clock, time.Hour)

	// 已確認收件的通知不再是 pending，超過期限也不會被掃到
	f.clock.Advance(25 * time.Hour)
	require.Equal(t, 0, scheduler.Sweep())

	stored, err := f.items.FindByID(item.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemCharityConfirmed, stored.Status)
}

func TestSchedulerStop(t *testing.T) {
	f := newHandoffFixture(t)
	scheduler := NewExpiryScheduler(f.notifs, f.svc, f.clock, time.Millisecond)

	done := make(chan struct{})
	go func() {
		scheduler.Start()
		close(done)
	}()

	scheduler.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
