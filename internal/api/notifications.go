package api

import (
	"context"
	"net/url"
	"strconv"
)

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread", "true")
	}
	var resp struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.get(ctx, withQuery(dashboard+"/notifications", q), &resp); err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		resp.Notifications = []Notification{}
	}
	return resp.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.post(ctx, dashboard+"/notifications/"+pathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.post(ctx, dashboard+"/notifications/read-all", nil, nil)
}

func (c *Client) DismissNotification(ctx context.Context, id string) error {
	return c.del(ctx, dashboard+"/notifications/"+pathEscape(id), nil)
}

func (c *Client) ListActivity(ctx context.Context, limit int) ([]ActivityLog, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Activity []ActivityLog `json:"activity"`
	}
	if err := c.get(ctx, withQuery(dashboard+"/activity", q), &resp); err != nil {
		return nil, err
	}
	if resp.Activity == nil {
		resp.Activity = []ActivityLog{}
	}
	return resp.Activity, nil
}
