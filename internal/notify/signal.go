package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// Tone is the audible cue attached to a notification
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	TonePlain   Tone = "plain"
)

// Signal is how loudly and for how long a notification is surfaced
type Signal struct {
	Tone         Tone
	ToastFor     time.Duration
	Notification models.Notification
}

// Signaler surfaces a notification to the user. Errors are logged by the dispatcher and never
// propagate.
type Signaler interface {
	Signal(ctx context.Context, s Signal) error
}

// SignalFor maps a notification's priority to its signal
func SignalFor(n models.Notification) Signal {
	switch n.Priority {
	case models.PriorityHigh:
		return Signal{Tone: ToneSuccess, ToastFor: 8 * time.Second, Notification: n}
	case models.PriorityMedium:
		return Signal{Tone: ToneInfo, ToastFor: 4 * time.Second, Notification: n}
	default:
		return Signal{Tone: TonePlain, ToastFor: 2 * time.Second, Notification: n}
	}
}

// TerminalSignaler writes notifications to a terminal, ringing the bell for loud tones
type TerminalSignaler struct {
	out io.Writer
}

func NewTerminalSignaler(out io.Writer) *TerminalSignaler {
	return &TerminalSignaler{out: out}
}

func (t *TerminalSignaler) Signal(ctx context.Context, s Signal) error {
	bell := ""
	if s.Tone != TonePlain {
		bell = "\a"
	}
	n := s.Notification
	_, err := fmt.Fprintf(t.out, "%s[%s] %s %s: %s\n",
		bell, n.CreatedAt.Local().Format("15:04:05"), n.OrderNumber, n.Title, n.Message)
	return err
}
