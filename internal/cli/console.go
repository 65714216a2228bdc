package cli

import (
	"time"

	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// consoleSink renders installer events with the terminal helpers.
func consoleSink() event.Sink {
	return func(e event.Event) {
		switch e.Kind {
		case event.StepStarted:
			util.Section("%s: %s", e.Subject, e.Message)
		case event.StepSkipped:
			util.Skip("%s already done", e.Subject)
		case event.StepCompleted:
			util.Success("%s done (%s)", e.Subject, e.Duration.Round(100*time.Millisecond))
		case event.StepFailed:
			util.Error("%s failed [%s]: %v", e.Subject, install.KindOf(e.Err), e.Err)
		case event.Warning:
			if e.Err != nil {
				util.Warn("%s: %s: %v", e.Subject, e.Message, e.Err)
			} else {
				util.Warn("%s: %s", e.Subject, e.Message)
			}
			if hint := install.HintOf(e.Err); hint != "" {
				util.Hint("hint: %s", hint)
			}
		case event.Progress, event.Info:
			util.Log("%s", e.Message)
		}
	}
}
