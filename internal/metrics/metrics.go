package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	groupFrozen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cryo",
		Name:      "group_frozen",
		Help:      "Frozen state of groups (1=fully frozen, 0=not frozen).",
	}, []string{"group"})

	tasksParked = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cryo",
		Name:      "group_tasks_parked",
		Help:      "Number of parked tasks directly owned by each group.",
	}, []string{"group"})

	freezeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryo",
		Name:      "freeze_requests_total",
		Help:      "Total freeze and thaw requests by direction.",
	}, []string{"direction"})

	freezeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cryo",
		Name:      "freeze_latency_seconds",
		Help:      "Time from a freeze request until the group reported fully frozen.",
	}, []string{"group"})

	freezingSubtrees = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cryo",
		Name:      "freezing_subtrees",
		Help:      "Number of groups currently freezing under the legacy model.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cryo",
		Name:      "build_info",
		Help:      "Build metadata for the running cryo binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(groupFrozen, tasksParked, freezeRequests, freezeLatency, freezingSubtrees, buildInfo)
}

// Registry returns the Prometheus registry containing all cryo metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetGroupFrozen records a group's frozen state.
func SetGroupFrozen(group string, frozen bool) {
	if group == "" {
		return
	}
	value := 0.0
	if frozen {
		value = 1.0
	}
	groupFrozen.WithLabelValues(group).Set(value)
}

// SetTasksParked records the parked task count directly owned by a group.
func SetTasksParked(group string, n int) {
	if group == "" {
		return
	}
	tasksParked.WithLabelValues(group).Set(float64(n))
}

// IncrementFreezeRequest counts one freeze or thaw request.
func IncrementFreezeRequest(freeze bool) {
	direction := "thaw"
	if freeze {
		direction = "freeze"
	}
	freezeRequests.WithLabelValues(direction).Inc()
}

// ObserveFreezeLatency records how long a group took to become fully
// frozen after a request.
func ObserveFreezeLatency(group string, d time.Duration) {
	label := group
	if label == "" {
		label = "unknown"
	}
	freezeLatency.WithLabelValues(label).Observe(d.Seconds())
}

// SetFreezingSubtrees mirrors the legacy model's global freezing counter.
func SetFreezingSubtrees(n int) {
	freezingSubtrees.Set(float64(n))
}

// ResetGroup clears the gauges for a removed group.
func ResetGroup(group string) {
	if group == "" {
		return
	}
	groupFrozen.DeleteLabelValues(group)
	tasksParked.DeleteLabelValues(group)
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
