package kinetic

import (
	"fmt"
	"time"
)

// debugStats holds per-tick timing and counts.
// Only logged when World.debug is true.
type debugStats struct {
	prepareTime   time.Duration
	machineTime   time.Duration
	objectTime    time.Duration
	deferredTime  time.Duration
	objectCount   int
	dynamicCount  int
	deferredCount int
}

func (s debugStats) total() time.Duration {
	return s.prepareTime + s.machineTime + s.objectTime + s.deferredTime
}

// debugLog writes the tick's timing and counts at debug level.
func (w *World) debugLog(stats debugStats) {
	if !w.debug {
		return
	}
	w.logger.Debug("tick",
		"t", w.t,
		"frame", w.frame,
		"prepare", stats.prepareTime,
		"machines", stats.machineTime,
		"objects", stats.objectTime,
		"deferred", stats.deferredTime,
		"total", stats.total(),
		"objectCount", stats.objectCount,
		"dynamicCount", stats.dynamicCount,
		"deferredCount", stats.deferredCount)
}

// debugCheckRemoved panics with a descriptive message when a removed object
// is written to. Only called when the object's world is in debug mode.
func debugCheckRemoved(o *Object, op string) {
	if o.removed {
		panic(fmt.Sprintf("kinetic debug: %s on removed object %q (ID was %d)", op, o.Name, o.ID))
	}
}

// debugMaxObjectCount is the object count above which a debug world warns.
const debugMaxObjectCount = 10000

func debugCheckObjectCount(w *World) {
	if len(w.objects) > debugMaxObjectCount {
		w.logger.Warn("object count exceeds threshold",
			"count", len(w.objects), "threshold", debugMaxObjectCount)
	}
}
