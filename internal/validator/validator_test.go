package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/cohortsched-backend/internal/model"
)

func newValidate() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

func TestRescheduleRequestRules(t *testing.T) {
	v := newValidate()
	clock := "18:30"

	ok := model.RescheduleRequest{NewDate: "2025-01-08", NewTime: &clock, ActionType: model.ActionPostpone, MentorName: "Ravi"}
	require.NoError(t, v.Struct(ok))

	bad := "6pm"
	err := v.Struct(model.RescheduleRequest{NewDate: "08/01/2025", NewTime: &bad, ActionType: "delay"})
	require.Error(t, err)

	fields := TranslateErrors(err)
	assert.Contains(t, fields, "new_date")
	assert.Contains(t, fields, "mentor_name")
	assert.Contains(t, fields, "action_type")
	assert.Equal(t, "new_time must be a time of day in HH:MM format", fields["new_time"])
}

func TestCohortURIRules(t *testing.T) {
	v := newValidate()

	require.NoError(t, v.Struct(model.WeekURI{CohortURI: model.CohortURI{Type: "basic", Number: "1.1"}, Week: 2}))

	err := v.Struct(model.WeekURI{CohortURI: model.CohortURI{Type: "basic_2", Number: "1_1"}, Week: 0})
	require.Error(t, err)
	fields := TranslateErrors(err)
	assert.Equal(t, "type must contain letters only", fields["type"])
	assert.Equal(t, "number must be dot-separated digits, e.g. 1.1", fields["number"])
	assert.Contains(t, fields, "week")
}
