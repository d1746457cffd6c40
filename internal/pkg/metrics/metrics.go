// Package metrics defines and registers all custom Prometheus metrics for the
// mentorship API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is first imported; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mentorship"

// ── Application metrics ───────────────────────────────────────────────────────

// ApplicationsSubmittedTotal counts applications created by students.
var ApplicationsSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Total number of applications submitted.",
	},
)

// SubmitRejectedTotal counts submissions turned away before insert.
// Label:
//   - reason: "duplicate" (stored application exists) or "in_flight" (concurrent submit holds the pair)
var SubmitRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submit_rejected_total",
		Help:      "Total number of submissions rejected as duplicates.",
	},
	[]string{"reason"},
)

// ApplicationTransitionsTotal counts effective status changes.
// Label:
//   - status: the new application status
var ApplicationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_transitions_total",
		Help:      "Total number of application status changes, by new status.",
	},
	[]string{"status"},
)

// MentorAssignmentsTotal counts is_mentor false→true flips.
var MentorAssignmentsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mentor_assignments_total",
		Help:      "Total number of students assigned as project mentors.",
	},
)

// ApplicationsWithdrawnTotal counts applications deleted by their student.
var ApplicationsWithdrawnTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_withdrawn_total",
		Help:      "Total number of applications withdrawn by students.",
	},
)

// ── Project metrics ───────────────────────────────────────────────────────────

var ProjectsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_created_total",
		Help:      "Total number of projects created.",
	},
)

// ProjectsDeletedTotal counts project deletions; cascaded applications are
// counted by CascadedApplicationsTotal.
var ProjectsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_deleted_total",
		Help:      "Total number of projects deleted.",
	},
)

var CascadedApplicationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_cascade_deleted_total",
		Help:      "Total number of applications removed because their project was deleted.",
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsCreatedTotal counts persisted notifications.
// Label:
//   - type: "project", "application" or "other"
var NotificationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "Total number of notifications persisted.",
	},
	[]string{"type"},
)

// NotificationsFailedTotal counts notifications that could not be persisted.
// They are not retried.
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of notifications lost because persistence failed.",
	},
	[]string{"type"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of domain events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventsDroppedTotal counts events that never reached a worker because the
// publisher gave up (shutdown or cancelled request).
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of domain events dropped before delivery.",
	},
	[]string{"kind"},
)

// EventHandlingDuration measures how long the notifier takes per event, fan-out included.
var EventHandlingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_handling_duration_seconds",
		Help:      "Duration of domain event handling, from dequeue to last notification write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
