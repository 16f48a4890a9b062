package orchestrator

import "hark/log"

// LogObserver writes usage records to the diagnostics log. Status changes
// are logged by the orchestrator itself.
type LogObserver struct{}

func (LogObserver) StatusChanged(Mode, Status) {}

func (LogObserver) SessionUsage(u Usage) {
	log.SessionUsage(log.Usage{
		SessionID:     u.SessionID,
		Mode:          u.Mode.String(),
		Outcome:       u.Outcome,
		Engine:        u.Engine,
		DurationMs:    u.Duration.Milliseconds(),
		AudioBytes:    u.AudioBytes,
		OriginalChars: u.OriginalChars,
		CleanedChars:  u.CleanedChars,
		OriginalWords: u.OriginalWords,
		CleanedWords:  u.CleanedWords,
	})
}

// ObserverFunc adapts a pair of functions; nil fields are skipped.
type ObserverFunc struct {
	OnStatus func(Mode, Status)
	OnUsage  func(Usage)
}

func (f ObserverFunc) StatusChanged(m Mode, s Status) {
	if f.OnStatus != nil {
		f.OnStatus(m, s)
	}
}

func (f ObserverFunc) SessionUsage(u Usage) {
	if f.OnUsage != nil {
		f.OnUsage(u)
	}
}
