package reminder

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
)

// overFetchFactor widens the store query when reminded tasks have to be
// filtered out one by one after the fetch.
const overFetchFactor = 2

// Selector picks the tasks that should be reminded in the current cycle.
type Selector struct {
	store  TaskQuery
	logger *slog.Logger
}

// NewSelector creates a Selector reading from store.
func NewSelector(store TaskQuery, log *slog.Logger) *Selector {
	if store == nil {
		panic("store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		store:  store,
		logger: log.With(slog.String("component", "reminder_selector")),
	}
}

// Query builds the store query for a window starting at now.
func (s *Selector) Query(now time.Time, lookahead time.Duration, limit int) DueTaskQuery {
	return DueTaskQuery{
		Now:              now,
		WindowEnd:        now.Add(lookahead),
		Limit:            limit,
		ExcludedStatuses: domain.ClosedTaskStatuses(),
	}
}

// SelectCandidates returns at most maxCandidates unreminded, active tasks due in
// (now, now+lookahead], ordered by due date ascending then priority descending.
func (s *Selector) SelectCandidates(
	ctx context.Context,
	now time.Time,
	lookahead time.Duration,
	maxCandidates int,
) ([]domain.DueTask, error) {
	if maxCandidates <= 0 {
		return nil, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	filtered := false
	if f, ok := s.store.(RemindedFilter); ok {
		filtered = f.FiltersReminded()
	}

	limit := maxCandidates * overFetchFactor
	if filtered {
		limit = maxCandidates
	}
	q := s.Query(now, lookahead, limit)

	rows, err := s.store.FindDueTasks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find due tasks: %w", err)
	}

	slices.SortStableFunc(rows, compareDueTasks)

	candidates := make([]domain.DueTask, 0, min(len(rows), maxCandidates))
	for _, row := range rows {
		if len(candidates) >= maxCandidates {
			break
		}
		if !row.Task.IsReminderCandidate(q.Now, q.WindowEnd) {
			log.Debug("store returned task outside the reminder window",
				slog.String("task_id", row.Task.ID.String()))
			continue
		}
		if !filtered {
			reminded, err := s.store.HasReminderEvent(ctx, row.Task.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check reminder event for task %s: %w", row.Task.ID, err)
			}
			if reminded {
				continue
			}
		}
		candidates = append(candidates, row)
	}

	log.Debug("selected reminder candidates",
		slog.Int("fetched", len(rows)),
		slog.Int("selected", len(candidates)),
		slog.Int("limit", maxCandidates),
		slog.Bool("store_filters_reminded", filtered))

	return candidates, nil
}

// compareDueTasks orders by due date ascending, then priority descending.
func compareDueTasks(a, b domain.DueTask) int {
	ad, bd := a.Task.DueDate, b.Task.DueDate
	switch {
	case ad == nil && bd == nil:
	case ad == nil:
		return 1
	case bd == nil:
		return -1
	default:
		if c := ad.Compare(*bd); c != 0 {
			return c
		}
	}
	return cmp.Compare(b.Task.Priority, a.Task.Priority)
}
