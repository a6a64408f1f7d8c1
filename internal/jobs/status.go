package jobs

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSucceeded  JobStatus = "succeeded"
	JobDead       JobStatus = "dead"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobPending, JobProcessing, JobSucceeded, JobDead:
		return true
	default:
		return false
	}
}
