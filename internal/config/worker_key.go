package config

type WorkerKeyStruct struct {
	AttendanceStatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AttendanceStatsQueue: "attendance_stats_queue",
}
