package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/stemsi/cohortsched-backend/internal/service"
)

type recordingRecomputer struct {
	ids []int
	err error
}

func (r *recordingRecomputer) Recompute(_ context.Context, mentorID int) (*service.AttendanceResult, error) {
	r.ids = append(r.ids, mentorID)
	if r.err != nil {
		return nil, r.err
	}
	return &service.AttendanceResult{}, nil
}

func TestAttendanceWorker_Process(t *testing.T) {
	rec := &recordingRecomputer{}
	w := NewAttendanceWorker(nil, rec, zerolog.Nop())

	w.process(context.Background(), "12")
	w.process(context.Background(), "not-a-number")
	w.process(context.Background(), "7")

	assert.Equal(t, []int{12, 7}, rec.ids)
}

func TestAttendanceWorker_ProcessSurvivesFailures(t *testing.T) {
	rec := &recordingRecomputer{err: errors.New("storage error")}
	w := NewAttendanceWorker(nil, rec, zerolog.Nop())

	assert.NotPanics(t, func() { w.process(context.Background(), "3") })
	assert.Equal(t, []int{3}, rec.ids)
}
