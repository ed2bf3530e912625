package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/batch"
	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

// AttendanceResult is a recomputed ledger row plus scan diagnostics.
type AttendanceResult struct {
	Ledger            model.AttendanceLedgerEntry `json:"ledger"`
	PartitionsScanned int                         `json:"partitions_scanned"`
	SkippedPartitions []batch.Failure             `json:"skipped_partitions,omitempty"`
	PartialFailure    bool                        `json:"partial_failure"`
}

// AttendanceCounts is the raw tally behind a ledger entry.
type AttendanceCounts struct {
	Total   int
	Present int
	Absent  int
	Special int
}

// Add folds other into c.
func (c *AttendanceCounts) Add(other AttendanceCounts) {
	c.Total += other.Total
	c.Present += other.Present
	c.Absent += other.Absent
	c.Special += other.Special
}

// Percent is present over total as a percentage rounded to two decimals, or 0 when
// there were no classes.
func (c AttendanceCounts) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return math.Round(float64(c.Present)/float64(c.Total)*100*100) / 100
}

// TallyAttendance counts one mentor's classes. assigned are sessions originally given
// to the mentor; covered are sessions the mentor taught as a substitute. Only held
// sessions count. An assigned session covered by anyone else is an absence; covering
// for others earns special credit only.
func TallyAttendance(mentorID int, assigned, covered []model.Session) AttendanceCounts {
	var c AttendanceCounts
	for i := range assigned {
		s := &assigned[i]
		if s.MentorID != mentorID || !s.Recorded() {
			continue
		}
		c.Total++
		if s.Swapped() {
			c.Absent++
		} else {
			c.Present++
		}
	}
	for i := range covered {
		s := &covered[i]
		if s.SwappedMentorID == nil || *s.SwappedMentorID != mentorID || !s.Recorded() {
			continue
		}
		c.Special++
	}
	return c
}

// AttendanceService derives and stores the mentor attendance ledger.
type AttendanceService struct {
	store     ScheduleStore
	directory Directory
	ledger    LedgerStore
	queue     RecomputeQueue
	log       zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService. queue may be nil when
// background recomputation is not used.
func NewAttendanceService(store ScheduleStore, directory Directory, ledger LedgerStore, queue RecomputeQueue, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		store:     store,
		directory: directory,
		ledger:    ledger,
		queue:     queue,
		log:       log.With().Str("component", "attendance_service").Logger(),
	}
}

// Recompute scans every cohort partition for the mentor's held sessions and replaces
// the mentor's ledger row. A partition that cannot be read is skipped and reported.
func (s *AttendanceService) Recompute(ctx context.Context, mentorID int) (*AttendanceResult, error) {
	const op = "RecomputeAttendance"
	if mentorID < 1 {
		return nil, opErr(op, ErrValidation, "mentor id must be positive", nil)
	}

	if _, err := s.directory.GetMentor(ctx, mentorID); err != nil {
		return nil, classify(op, fmt.Sprintf("mentor %d", mentorID), err)
	}

	partitions, err := s.partitions(ctx)
	if err != nil {
		return nil, opErr(op, ErrStorage, "list cohorts", err)
	}

	log := s.log.With().Int("mentor_id", mentorID).Logger()
	var counts AttendanceCounts
	report := batch.Run(ctx, log, partitions,
		func(p cohort.Partition) string { return string(p) },
		func(ctx context.Context, p cohort.Partition) error {
			assigned, err := s.store.ListRecordedByMentor(ctx, p, mentorID)
			if err != nil {
				return fmt.Errorf("assigned sessions: %w", err)
			}
			covered, err := s.store.ListRecordedBySubstitute(ctx, p, mentorID)
			if err != nil {
				return fmt.Errorf("covered sessions: %w", err)
			}
			counts.Add(TallyAttendance(mentorID, assigned, covered))
			return nil
		})

	entry := model.AttendanceLedgerEntry{
		MentorID:          mentorID,
		TotalClasses:      counts.Total,
		Present:           counts.Present,
		Absent:            counts.Absent,
		SpecialAttendance: counts.Special,
		AttendancePercent: counts.Percent(),
	}
	if err := s.ledger.Upsert(ctx, &entry); err != nil {
		return nil, opErr(op, ErrStorage, fmt.Sprintf("store ledger of mentor %d", mentorID), err)
	}

	log.Info().
		Int("total", entry.TotalClasses).
		Int("present", entry.Present).
		Int("absent", entry.Absent).
		Int("special", entry.SpecialAttendance).
		Float64("percent", entry.AttendancePercent).
		Int("skipped_partitions", report.Failed()).
		Msg("Attendance recomputed")

	return &AttendanceResult{
		Ledger:            entry,
		PartitionsScanned: report.Succeeded,
		SkippedPartitions: report.Failures,
		PartialFailure:    report.Partial(),
	}, nil
}

// Get returns the stored ledger row of a mentor.
func (s *AttendanceService) Get(ctx context.Context, mentorID int) (*model.AttendanceLedgerEntry, error) {
	const op = "GetAttendance"
	if mentorID < 1 {
		return nil, opErr(op, ErrValidation, "mentor id must be positive", nil)
	}
	entry, err := s.ledger.GetByMentor(ctx, mentorID)
	if err != nil {
		return nil, classify(op, fmt.Sprintf("ledger of mentor %d", mentorID), err)
	}
	return entry, nil
}

// EnqueueAll queues every mentor for background recomputation and returns how many
// were queued.
func (s *AttendanceService) EnqueueAll(ctx context.Context) (int, error) {
	const op = "EnqueueAttendance"
	if s.queue == nil {
		return 0, opErr(op, ErrStorage, "recompute queue is not configured", nil)
	}
	ids, err := s.directory.ListMentorIDs(ctx)
	if err != nil {
		return 0, opErr(op, ErrStorage, "list mentors", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.queue.Enqueue(ctx, ids...); err != nil {
		return 0, opErr(op, ErrStorage, "enqueue mentors", err)
	}
	s.log.Info().Int("mentors", len(ids)).Msg("Attendance recompute enqueued")
	return len(ids), nil
}

// RecomputeAllResult summarizes a full ledger rebuild. Partitions folds the partition
// scans of every mentor that was recomputed.
type RecomputeAllResult struct {
	Mentors    batch.Report `json:"mentors"`
	Partitions batch.Report `json:"partitions"`
}

// Err is ErrPartialFailure when a mentor could not be recomputed or a partition was skipped.
func (r *RecomputeAllResult) Err() error {
	return partialErr("RecomputeAllAttendance", r.Mentors.Failed()+r.Partitions.Failed())
}

// RecomputeAll recomputes every mentor in turn. One mentor failing does not stop the rest.
func (s *AttendanceService) RecomputeAll(ctx context.Context) (*RecomputeAllResult, error) {
	ids, err := s.directory.ListMentorIDs(ctx)
	if err != nil {
		return nil, opErr("RecomputeAllAttendance", ErrStorage, "list mentors", err)
	}
	var result RecomputeAllResult
	result.Mentors = batch.Run(ctx, s.log, ids,
		func(id int) string { return fmt.Sprintf("mentor:%d", id) },
		func(ctx context.Context, id int) error {
			res, err := s.Recompute(ctx, id)
			if err != nil {
				return err
			}
			result.Partitions.Merge(res.ScanReport())
			return nil
		})
	return &result, nil
}

// partitions resolves the schedule partition of every registered cohort. Rows that do
// not form a valid cohort key are logged and left out.
func (s *AttendanceService) partitions(ctx context.Context) ([]cohort.Partition, error) {
	cohorts, err := s.directory.ListCohorts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]cohort.Partition, 0, len(cohorts))
	seen := make(map[cohort.Partition]bool, len(cohorts))
	for _, c := range cohorts {
		key, err := cohort.NewKey(c.Type, c.Number)
		if err != nil {
			s.log.Warn().Err(err).Int("cohort_id", c.ID).Msg("Skipping cohort with malformed key")
			continue
		}
		p := key.Partition()
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// ScanReport restates the partition scan as a batch report.
func (r *AttendanceResult) ScanReport() batch.Report {
	return batch.Report{
		Attempted: r.PartitionsScanned + len(r.SkippedPartitions),
		Succeeded: r.PartitionsScanned,
		Failures:  r.SkippedPartitions,
	}
}

// Err is ErrPartialFailure when some partitions were skipped.
func (r *AttendanceResult) Err() error {
	return partialErr("RecomputeAttendance", len(r.SkippedPartitions))
}
