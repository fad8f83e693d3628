/*
Package metrics provides Prometheus metrics collection and exposition
for the collection orchestrator.

Metrics are plain package-level prometheus.Collector values, registered
at init, read and written directly by the packages that own the event
(executor, collector, rtr, objectstore) — there is no separate polling
collector.

# Categories

  - Fan-out executor and collector: jobs by terminal result/kind (written
    by collector), in-flight gauge (written by executor), and a phase
    duration histogram that is registered but not observed by any package
  - RTR façade: request counts by method/outcome, retry counts, host registry cache hit/miss
  - Object store: upload bytes/duration, VERIFY size-mismatch counter

# Process health

health.go additionally exposes /health, /ready, /live JSON handlers
backed by a small in-memory component registry (RegisterComponent /
UpdateComponent), independent of the Prometheus registry. Readiness
requires the "rtr" and "objectstore" components to be registered and
their latest reported status to be healthy.
*/
package metrics
