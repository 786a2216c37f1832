package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// chaosTransientPattern matches the __FAIL_TRANSIENT_N__ test marker.
var chaosTransientPattern = regexp.MustCompile(`__FAIL_TRANSIENT_(\d+)__`)

const chaosPermanentMarker = "__FAIL_PERMANENT__"

// ChaosCheck inspects payload for test-only failure markers. It is a
// no-op unless enabled is true: chaos markers embedded in untrusted
// input must never be honoured in production.
func ChaosCheck(enabled bool, payload string, attempt int) error {
	if !enabled {
		return nil
	}
	if matches := chaosTransientPattern.FindStringSubmatch(payload); matches != nil {
		threshold, err := strconv.Atoi(matches[1])
		if err == nil && attempt < threshold {
			return errs.NewTransient(fmt.Errorf("chaos marker: transient failure (attempt %d of %d)", attempt+1, threshold))
		}
		return nil
	}
	if strings.Contains(payload, chaosPermanentMarker) {
		return errs.NewPermanent(fmt.Errorf("chaos marker: permanent failure"))
	}
	return nil
}
