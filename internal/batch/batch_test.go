package batch

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRun_ContinuesPastFailures(t *testing.T) {
	items := []int{1, 2, 3, 4}
	var visited []int

	report := Run(context.Background(), zerolog.Nop(), items, strconv.Itoa, func(_ context.Context, n int) error {
		visited = append(visited, n)
		if n%2 == 0 {
			return errors.New("even rejected")
		}
		return nil
	})

	assert.Equal(t, items, visited)
	assert.Equal(t, 4, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed())
	assert.True(t, report.Partial())
	assert.Equal(t, []Failure{
		{Item: "2", Error: "even rejected"},
		{Item: "4", Error: "even rejected"},
	}, report.Failures)
}

func TestRun_Empty(t *testing.T) {
	report := Run(context.Background(), zerolog.Nop(), []string{}, func(s string) string { return s }, func(context.Context, string) error {
		t.Fatal("fn must not be called")
		return nil
	})

	assert.Equal(t, 0, report.Attempted)
	assert.False(t, report.Partial())
}

func TestReport_Merge(t *testing.T) {
	var a, b Report
	a.Record("x", nil)
	b.Record("y", errors.New("boom"))

	a.Merge(b)

	assert.Equal(t, 2, a.Attempted)
	assert.Equal(t, 1, a.Succeeded)
	assert.Equal(t, 1, a.Failed())
}
