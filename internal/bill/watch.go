package bill

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/MrJamesThe3rd/finny/internal/realtime"
)

// UnboundedWindow asks Summary for an upcoming bucket without an end date.
const UnboundedWindow = -1

// Summary classifies the pending bills for a dashboard. A nil windowDays
// uses the policy's upcoming window; a negative one, such as
// UnboundedWindow, counts every future bill as upcoming.
func (s *Service) Summary(ctx context.Context, today civil.Date, windowDays *int) (Buckets, error) {
	switch {
	case windowDays == nil:
		windowDays = &s.policy.UpcomingWindowDays
	case *windowDays < 0:
		windowDays = nil
	}

	pending, err := s.bills.ListBills(ctx, ListFilter{Status: new(StatusPending)})
	if err != nil {
		return Buckets{}, &PersistenceError{Op: "listing pending bills", Err: err}
	}

	return Classify(pending, today, windowDays), nil
}

// BoardFilter selects the bills page contents.
type BoardFilter struct {
	Tab   Tab
	Today civil.Date
}

// Board returns the pending bills of a tab grouped by due date. Upcoming is
// unbounded on the board.
func (s *Service) Board(ctx context.Context, filter BoardFilter) ([]Group, error) {
	if filter.Tab == "" {
		filter.Tab = TabAll
	}

	if !filter.Tab.Valid() {
		return nil, invalid("tab", "must be all, overdue, today or upcoming")
	}

	pending, err := s.bills.ListBills(ctx, ListFilter{Status: new(StatusPending)})
	if err != nil {
		return nil, &PersistenceError{Op: "listing pending bills", Err: err}
	}

	return GroupByDueDate(Select(pending, filter.Tab, filter.Today)), nil
}

var ErrNoNotifier = errors.New("no change notifier configured")

// Watch calls fn with a fresh summary after every change to the bills table
// until ctx is done or the returned stop function is called. The first
// summary is delivered before Watch returns.
func (s *Service) Watch(ctx context.Context, today func() civil.Date, fn func(Buckets, error)) (func(), error) {
	if s.notifier == nil {
		return nil, ErrNoNotifier
	}

	refresh := func() {
		fn(s.Summary(ctx, today(), nil))
	}

	unsubscribe, err := s.notifier.Subscribe(realtime.TableBills, func(realtime.Event) {
		if ctx.Err() == nil {
			refresh()
		}
	})
	if err != nil {
		return nil, err
	}

	refresh()

	var once sync.Once

	stop := make(chan struct{})
	done := func() {
		once.Do(func() {
			close(stop)
			unsubscribe()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			done()
		case <-stop:
		}
	}()

	return done, nil
}
