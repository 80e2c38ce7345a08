package tracing

import (
	"log"
)

// LogHookBase provides the common logic for all the hooks that print to a
// logger.
type LogHookBase struct {
	*log.Logger
}
