// Package jobs runs the scheduled background tasks of the e-kanban service
// on github.com/robfig/cron/v3 with second-resolution schedules.
//
// # Available Jobs
//
// UrgencySweepJob re-reads the live board on URGENCY_SWEEP_SCHEDULE, refreshes
// the board gauges and logs every pending order once when it crosses the
// urgency threshold.
//
// # Usage
//
//	sweep := jobs.NewUrgencySweepJob(liveProjection, metrics, clock, cfg.UrgencySweepSchedule, logger)
//	jobManager := jobs.NewJobManager(sweep)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
