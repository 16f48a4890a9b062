package notify

import (
	"errors"
	"strings"
	"testing"

	"hark/orchestrator"
)

func TestDesktopOnlyReportsProblems(t *testing.T) {
	var sent []string
	d := &Desktop{send: func(_, m string) error { sent = append(sent, m); return nil }}

	d.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeInjected})
	d.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeBlank})
	d.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeFailed, Err: errors.New("model missing")})
	d.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeStartFailed, Err: errors.New("no mic")})

	if len(sent) != 2 {
		t.Fatalf("sent %q", sent)
	}
	if !strings.Contains(sent[0], "model missing") || !strings.Contains(sent[1], "no mic") {
		t.Errorf("sent %q", sent)
	}
}

func TestReply(t *testing.T) {
	var got string
	d := &Desktop{send: func(_, m string) error { got = m; return errors.New("no dbus") }}
	if err := d.Reply("42"); err != nil {
		t.Errorf("Reply = %v, send failures are only logged", err)
	}
	if got != "42" {
		t.Errorf("got %q", got)
	}
}
