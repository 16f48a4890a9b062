// Package notify shows desktop notifications for things the user would
// otherwise miss: failures and assistant answers.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"hark/log"
	"hark/orchestrator"
)

const title = "hark"

// Desktop is an orchestrator observer. It stays quiet on success; a pasted
// transcript is its own confirmation.
type Desktop struct {
	send func(title, message string) error
}

func NewDesktop() *Desktop {
	return &Desktop{send: func(t, m string) error { return beeep.Notify(t, m, "") }}
}

func (d *Desktop) StatusChanged(orchestrator.Mode, orchestrator.Status) {}

func (d *Desktop) SessionUsage(u orchestrator.Usage) {
	if msg := message(u); msg != "" {
		d.notify(msg)
	}
}

func message(u orchestrator.Usage) string {
	switch u.Outcome {
	case orchestrator.OutcomeStartFailed:
		return fmt.Sprintf("Could not start recording: %v", u.Err)
	case orchestrator.OutcomeFailed:
		return fmt.Sprintf("Transcription failed: %v", u.Err)
	case orchestrator.OutcomeInjectFailed:
		return "Paste failed, the transcript is in the log"
	case orchestrator.OutcomeAssistantFailed:
		return "Assistant request failed"
	}
	return ""
}

// Reply shows an assistant answer.
func (d *Desktop) Reply(text string) error {
	d.notify(text)
	return nil
}

func (d *Desktop) notify(msg string) {
	if err := d.send(title, msg); err != nil {
		log.Warnf("notify: %v", err)
	}
}
