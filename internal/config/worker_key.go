package config

type WorkerKeyStruct struct {
	AttendanceRecomputeQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AttendanceRecomputeQueue: "attendance_recompute_queue",
}
