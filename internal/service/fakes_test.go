package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/notify"
	"github.com/stemsi/cohortsched-backend/internal/repository"
)

var errBoom = errors.New("connection reset by peer")

// memStore is an in-memory ScheduleStore.
type memStore struct {
	mu         sync.Mutex
	partitions map[cohort.Partition][]model.Session

	failUpdate func(id int, u model.SessionUpdate) error
	failList   map[cohort.Partition]bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{partitions: map[cohort.Partition][]model.Session{}}
}

func (m *memStore) add(p cohort.Partition, sessions ...model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		if s.ID == 0 {
			s.ID = len(m.partitions[p]) + 1
		}
		m.partitions[p] = append(m.partitions[p], s)
	}
}

func (m *memStore) snapshot(p cohort.Partition) []model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.Session(nil), m.partitions[p]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekNumber != out[j].WeekNumber {
			return out[i].WeekNumber < out[j].WeekNumber
		}
		return out[i].SessionNumber < out[j].SessionNumber
	})
	return out
}

func (m *memStore) ListSessions(_ context.Context, p cohort.Partition) ([]model.Session, error) {
	if _, ok := m.partitions[p]; !ok {
		return nil, repository.ErrNotFound
	}
	return m.snapshot(p), nil
}

func (m *memStore) GetSession(_ context.Context, p cohort.Partition, id int) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.partitions[p] {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) UpdateSessionFields(_ context.Context, p cohort.Partition, id int, u model.SessionUpdate) error {
	if m.failUpdate != nil {
		if err := m.failUpdate(id, u); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.partitions[p] {
		s := &m.partitions[p][i]
		if s.ID != id {
			continue
		}
		if u.WeekNumber != nil {
			s.WeekNumber = *u.WeekNumber
		}
		if u.Date != nil {
			s.Date = model.DateOnly(*u.Date)
		}
		if u.Day != nil {
			s.Day = *u.Day
		}
		if u.Time != nil {
			t := *u.Time
			s.Time = &t
		}
		if u.ClearMeetingLink {
			s.MeetingLink = nil
		}
		return nil
	}
	return repository.ErrNotFound
}

func (m *memStore) DeleteWeek(_ context.Context, p cohort.Partition, week int) (int64, error) {
	if m.failDelete {
		return 0, errBoom
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.partitions[p][:0]
	var deleted int64
	for _, s := range m.partitions[p] {
		if s.WeekNumber == week {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.partitions[p] = kept
	return deleted, nil
}

func (m *memStore) ListRecordedByMentor(_ context.Context, p cohort.Partition, mentorID int) ([]model.Session, error) {
	return m.filter(p, func(s model.Session) bool { return s.MentorID == mentorID && s.Recorded() })
}

func (m *memStore) ListRecordedBySubstitute(_ context.Context, p cohort.Partition, mentorID int) ([]model.Session, error) {
	return m.filter(p, func(s model.Session) bool {
		return s.SwappedMentorID != nil && *s.SwappedMentorID == mentorID && s.Recorded()
	})
}

func (m *memStore) filter(p cohort.Partition, keep func(model.Session) bool) ([]model.Session, error) {
	if m.failList[p] {
		return nil, errBoom
	}
	var out []model.Session
	for _, s := range m.snapshot(p) {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	cohorts         []model.Cohort
	mentors         map[int]model.Mentor
	coordinators    []model.Recipient
	students        map[string][]model.Recipient
	failCoordinator bool
}

func (d *fakeDirectory) ListCohorts(context.Context) ([]model.Cohort, error) {
	return d.cohorts, nil
}

func (d *fakeDirectory) GetMentor(_ context.Context, id int) (*model.Mentor, error) {
	m, ok := d.mentors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (d *fakeDirectory) ListMentorIDs(context.Context) ([]int, error) {
	ids := make([]int, 0, len(d.mentors))
	for id := range d.mentors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (d *fakeDirectory) ListCoordinators(context.Context) ([]model.Recipient, error) {
	if d.failCoordinator {
		return nil, errBoom
	}
	return d.coordinators, nil
}

func (d *fakeDirectory) ListStudents(_ context.Context, cohortType, cohortNumber string) ([]model.Recipient, error) {
	return d.students[cohortType+" "+cohortNumber], nil
}

// fakeLedger records upserts.
type fakeLedger struct {
	rows       map[int]model.AttendanceLedgerEntry
	failUpsert bool
}

func (l *fakeLedger) Upsert(_ context.Context, e *model.AttendanceLedgerEntry) error {
	if l.failUpsert {
		return errBoom
	}
	if l.rows == nil {
		l.rows = map[int]model.AttendanceLedgerEntry{}
	}
	e.UpdatedAt = time.Now()
	l.rows[e.MentorID] = *e
	return nil
}

func (l *fakeLedger) GetByMentor(_ context.Context, mentorID int) (*model.AttendanceLedgerEntry, error) {
	e, ok := l.rows[mentorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

// fakeQueue records enqueued mentor ids.
type fakeQueue struct{ ids []int }

func (q *fakeQueue) Enqueue(_ context.Context, ids ...int) error {
	q.ids = append(q.ids, ids...)
	return nil
}

// fakeLocker refuses partitions listed in busy and counts releases.
type fakeLocker struct {
	mu       sync.Mutex
	busy     map[string]bool
	acquired int
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, partition string) (lock.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[partition] {
		return nil, lock.ErrLocked
	}
	l.acquired++
	return &fakeLease{locker: l}, nil
}

type fakeLease struct {
	locker *fakeLocker
	done   bool
}

func (f *fakeLease) Release(context.Context) error {
	if f.done {
		return nil
	}
	f.done = true
	f.locker.mu.Lock()
	f.locker.released++
	f.locker.mu.Unlock()
	return nil
}

// fakePublisher collects published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []model.ScheduleEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev model.ScheduleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// fakeDispatcher fails any address or phone listed in fail.
type fakeDispatcher struct {
	mu     sync.Mutex
	fail   map[string]bool
	emails []notify.EmailMessage
	texts  []notify.TemplateMessage
}

func (d *fakeDispatcher) SendEmail(_ context.Context, msg notify.EmailMessage) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails = append(d.emails, msg)
	return !d.fail[msg.To]
}

func (d *fakeDispatcher) SendTemplate(_ context.Context, msg notify.TemplateMessage) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, msg)
	return !d.fail[msg.To]
}

func date(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func session(id, week, number int, day string) model.Session {
	d := date(day)
	return model.Session{
		ID:            id,
		WeekNumber:    week,
		SessionNumber: number,
		Date:          d,
		Day:           model.WeekdayName(d),
		MentorID:      1,
		Materials:     model.NewMaterials("https://example.com/slides"),
	}
}

func ptr[T any](v T) *T { return &v }
