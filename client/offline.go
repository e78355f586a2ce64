package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/achu-1612/offcache"
)

// Cache keys of the student reads.
const (
	KeyAllStudents  = "students:all"
	KeyStudentCount = "students:count"
)

// StudentKey is the cache key of a single student.
func StudentKey(id int64) string {
	return fmt.Sprintf("students:%d", id)
}

// Op names a queued student mutation.
type Op string

const (
	OpRegister   Op = "register"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpReactivate Op = "reactivate"
)

// Action is the payload of a queued student mutation.
type Action struct {
	Op        Op            `json:"op"`
	StudentID int64         `json:"studentId,omitempty"`
	Body      *Registration `json:"body,omitempty"`
}

// Students serves student reads from the network when it is reachable and
// from the offline cache when it is not. Mutations attempted offline are
// queued and replayed by a Replayer once the cache syncs.
type Students struct {
	api   *Client
	cache offcache.Cache
	ttl   time.Duration
}

// NewStudents wraps api with cache. A ttl of zero uses the cache default.
func NewStudents(api *Client, cache offcache.Cache, ttl time.Duration) *Students {
	return &Students{api: api, cache: cache, ttl: ttl}
}

// List returns all active students.
func (s *Students) List(ctx context.Context) ([]Student, *offcache.FetchResult, error) {
	return offcache.Fetch(ctx, s.cache, KeyAllStudents, s.api.ListStudents, s.ttl)
}

// Get returns a student by ID.
func (s *Students) Get(ctx context.Context, id int64) (*Student, *offcache.FetchResult, error) {
	return offcache.Fetch(ctx, s.cache, StudentKey(id), func(ctx context.Context) (*Student, error) {
		return s.api.GetStudent(ctx, id)
	}, s.ttl)
}

// Count returns the number of active students.
func (s *Students) Count(ctx context.Context) (int, *offcache.FetchResult, error) {
	return offcache.Fetch(ctx, s.cache, KeyStudentCount, s.api.CountStudents, s.ttl)
}

// Register registers a student, or queues the registration when offline.
func (s *Students) Register(ctx context.Context, req *Registration) (*Student, error) {
	return s.mutate(ctx, Action{Op: OpRegister, Body: req})
}

// Update updates a student, or queues the update when offline.
func (s *Students) Update(ctx context.Context, id int64, req *Registration) (*Student, error) {
	return s.mutate(ctx, Action{Op: OpUpdate, StudentID: id, Body: req})
}

// Delete deactivates a student, or queues the deletion when offline.
func (s *Students) Delete(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, Action{Op: OpDelete, StudentID: id})

	return err
}

// Reactivate reactivates a student, or queues the reactivation when offline.
func (s *Students) Reactivate(ctx context.Context, id int64) (*Student, error) {
	return s.mutate(ctx, Action{Op: OpReactivate, StudentID: id})
}

// mutate sends a to the backend when online, and queues it when the network is unreachable
// or the request did not reach the backend. Errors returned by the backend
// itself are handed back to the caller.
func (s *Students) mutate(ctx context.Context, a Action) (*Student, error) {
	if s.cache.IsOnline() {
		st, err := perform(ctx, s.api, a)

		var apiErr *APIError
		if err == nil || errors.As(err, &apiErr) {
			if err == nil {
				s.invalidate(a)
			}

			return st, err
		}

		s.api.l.Warnf("%s student: %v, queueing for replay", a.Op, err)
	}

	action, outcome := s.cache.QueueAction(a)
	if outcome != offcache.OutcomeOK {
		return nil, fmt.Errorf("%s student: action %s could not be queued (%s)", a.Op, action.ID, outcome)
	}

	return nil, fmt.Errorf("%s student: action %s %w", a.Op, action.ID, ErrQueued)
}

// invalidate drops the cached reads a mutation made stale.
func (s *Students) invalidate(a Action) {
	s.cache.Remove(KeyAllStudents)
	s.cache.Remove(KeyStudentCount)

	if a.StudentID != 0 {
		s.cache.Remove(StudentKey(a.StudentID))
	}
}

// make sure Replayer implements the offcache.Replayer interface
var _ offcache.Replayer = (*Replayer)(nil)

// Replayer performs queued student actions against the backend.
type Replayer struct {
	api *Client
}

// NewReplayer returns a Replayer sending actions through api.
func NewReplayer(api *Client) *Replayer {
	return &Replayer{api: api}
}

// Replay decodes the action and performs it. Requests the backend rejects
// for good, and payloads that cannot be decoded, are permanent failures.
// Rejected credentials are not: the action is retried until the cache runs
// out of attempts, leaving time to fix the configuration.
func (r *Replayer) Replay(ctx context.Context, action offcache.PendingAction) error {
	var a Action
	if err := action.Decode(&a); err != nil {
		return offcache.Permanent(fmt.Errorf("decoding action %s: %w", action.ID, err))
	}

	_, err := perform(ctx, r.api, a)

	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Retryable() && !apiErr.IsAuthError() {
		return offcache.Permanent(err)
	}

	return err
}

func perform(ctx context.Context, api *Client, a Action) (*Student, error) {
	switch a.Op {
	case OpRegister:
		return api.RegisterStudent(ctx, a.Body)
	case OpUpdate:
		return api.UpdateStudent(ctx, a.StudentID, a.Body)
	case OpDelete:
		_, err := api.DeleteStudent(ctx, a.StudentID)

		return nil, err
	case OpReactivate:
		return api.ReactivateStudent(ctx, a.StudentID)
	default:
		return nil, offcache.Permanent(fmt.Errorf("unknown student action %q", a.Op))
	}
}
