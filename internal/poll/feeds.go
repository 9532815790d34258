package poll

import (
	"context"
	"log/slog"
	"time"

	"symonectl/internal/api"
	"symonectl/internal/data"
)

const (
	ActivityInterval      = 10 * time.Second
	NotificationsInterval = 30 * time.Second
)

// Activity polls the activity feed and hands each fresh page to onPage.
func Activity(svc *data.Service, interval time.Duration, limit int, onPage func([]api.ActivityLog), onStatus func(Status, error), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = ActivityInterval
	}
	return &Poller{
		Name:     "activity",
		Interval: interval,
		Logger:   logger,
		OnStatus: onStatus,
		Fn: func(ctx context.Context) error {
			page, err := svc.RefreshActivity(ctx, limit)
			if err != nil {
				return err
			}
			if onPage != nil {
				onPage(page)
			}
			return nil
		},
	}
}

// Unread polls notifications and reports the unread count.
func Unread(svc *data.Service, interval time.Duration, onCount func(int), onStatus func(Status, error), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = NotificationsInterval
	}
	return &Poller{
		Name:     "notifications",
		Interval: interval,
		Logger:   logger,
		OnStatus: onStatus,
		Fn: func(ctx context.Context) error {
			list, err := svc.RefreshNotifications(ctx)
			if err != nil {
				return err
			}
			if onCount != nil {
				onCount(data.CountUnread(list))
			}
			return nil
		},
	}
}
