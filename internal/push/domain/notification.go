package domain

import "time"

// DefaultTitle is used when a caller does not set one.
const DefaultTitle = "BobaLove"

// DefaultBody is used when a caller supplies no body at all.
const DefaultBody = "You have a new notification"

// NotificationPayload is the single normalized notification shape both
// dispatchers consume. Legacy callers with text/message/content fields
// are adapted at the delivery boundary, not here.
type NotificationPayload struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Icon      string            `json:"icon,omitempty"`
	URL       string            `json:"url,omitempty"`
	Type      string            `json:"type,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Normalized returns a copy with defaults applied.
func (p NotificationPayload) Normalized() NotificationPayload {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return p
}

// DispatchResult aggregates the outcome of one dispatch call. Every
// dispatcher entry point returns this shape; "no targets" is simply a
// zero result.
type DispatchResult struct {
	Delivered int `json:"delivered"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Ok reports whether at least one delivery succeeded.
func (r DispatchResult) Ok() bool {
	return r.Delivered > 0
}

// Accepted reports whether the dispatch should be treated as handled
// by callers: something was delivered, or every target was a
// placeholder that is deliberately never sent to.
func (r DispatchResult) Accepted() bool {
	return r.Delivered > 0 || (r.Failed == 0 && r.Skipped > 0)
}

// Add merges another result into this one.
func (r *DispatchResult) Add(other DispatchResult) {
	r.Delivered += other.Delivered
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// MaintenanceResult is returned by every repair/sync job so they can be
// invoked uniformly from an admin endpoint or a scheduler.
type MaintenanceResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Stats   map[string]int `json:"stats"`
}
