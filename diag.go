package sqlback

import (
	"fmt"

	"github.com/smsforge/sqlback/logger"
)

// DiagRecord is one diagnostic record extracted from a failed engine
// operation.
type DiagRecord struct {
	// State is the five-character SQLSTATE code.
	State string
	// Native is the engine's own error code, 0 when it has none.
	Native int
	// Message is the engine's error text.
	Message string
}

func (r DiagRecord) String() string {
	return fmt.Sprintf("{%s} %s", r.State, r.Message)
}

// GenericDiag converts an error a backend has no richer mapping for
// into a single general-error record.
func GenericDiag(err error) []DiagRecord {
	if err == nil {
		return nil
	}
	return []DiagRecord{{State: "HY000", Message: err.Error()}}
}

// Report logs every diagnostic record of a failed operation at error
// severity, one line per record as state:seq:native:message, preceded
// by the caller's context message. Report never fails: a nil log or
// an empty record list is silently absorbed.
func Report(log *logger.Logger, context string, recs []DiagRecord) {
	if log == nil || len(recs) == 0 {
		return
	}
	log.Errorf("%s, diagnostics:", context)
	for i, r := range recs {
		log.Errorf("%s:%d:%d:%s", r.State, i+1, r.Native, r.Message)
	}
}
