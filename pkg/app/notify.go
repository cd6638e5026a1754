package app

import (
	"context"
	"errors"

	"github.com/jordanlanch/leadtriage/pkg/workflow"
)

// Notifier receives workflow outcomes
type Notifier interface {
	workflow.FollowUpNotifier
	workflow.RemovalNotifier
	IsEnabled() bool
}

// Notifiers fans an outcome out to every enabled notifier. Every notifier is
// tried and the failures are joined.
type Notifiers []Notifier

// Enabled keeps the notifiers that have somewhere to deliver
func (n Notifiers) Enabled() Notifiers {
	out := Notifiers{}
	for _, x := range n {
		if x.IsEnabled() {
			out = append(out, x)
		}
	}
	return out
}

// NotifyFollowUpsComplete implements workflow.FollowUpNotifier
func (n Notifiers) NotifyFollowUpsComplete(ctx context.Context, successful, failed []string) error {
	var errs []error
	for _, x := range n {
		errs = append(errs, x.NotifyFollowUpsComplete(ctx, successful, failed))
	}
	return errors.Join(errs...)
}

// NotifyLeadsRemoved implements workflow.RemovalNotifier
func (n Notifiers) NotifyLeadsRemoved(ctx context.Context, campaignLabel string, removed int, artifactURL string) error {
	var errs []error
	for _, x := range n {
		errs = append(errs, x.NotifyLeadsRemoved(ctx, campaignLabel, removed, artifactURL))
	}
	return errors.Join(errs...)
}
