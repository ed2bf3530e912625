package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionScheduleRead allows viewing cohort schedules and the live change stream.
	PermissionScheduleRead Permission = "schedule:read"

	// PermissionScheduleWrite allows deleting weeks and rescheduling sessions.
	PermissionScheduleWrite Permission = "schedule:write"

	// PermissionAttendanceRead allows viewing mentor attendance ledgers.
	PermissionAttendanceRead Permission = "attendance:read"

	// PermissionAttendanceWrite allows recomputing mentor attendance.
	PermissionAttendanceWrite Permission = "attendance:write"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionScheduleRead,
	PermissionScheduleWrite,
	PermissionAttendanceRead,
	PermissionAttendanceWrite,
}
