package jobs

type JobType string

const (
	JobSendNotification JobType = "send_notification"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobSendNotification:
		return true
	default:
		return false
	}
}
