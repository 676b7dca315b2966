package session

// Recorder receives session events for metrics.
type Recorder interface {
	RecordTransition(to string)
	RecordAuthAttempt(operation string, success bool)
	RecordCheck(outcome string)
	RecordStaleDiscard()
}

// Outcomes reported to Recorder.RecordCheck.
const (
	CheckNoToken     = "no_token"
	CheckValid       = "valid"
	CheckRejected    = "rejected"
	CheckUnreachable = "unreachable"
	CheckFailed      = "failed"
	CheckMalformed   = "malformed"
)

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string)        {}
func (nopRecorder) RecordAuthAttempt(string, bool) {}
func (nopRecorder) RecordCheck(string)             {}
func (nopRecorder) RecordStaleDiscard()            {}
