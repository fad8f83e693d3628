// Package collector implements the per-host collection state machine
// (spec §4.3): INIT -> PRECHECK -> DEPLOY -> LAUNCH -> RUN_MONITOR ->
// FILE_WAIT -> STABILIZE -> FETCH -> UPLOAD -> VERIFY -> CLEAN -> DONE,
// or FAIL{reason} from any state, with CLEAN always attempted once a
// session has been opened.
//
// Collector depends only on narrow capability interfaces (HostResolver,
// TenantUploader, SessionAPI, TransferAPI, UploadAPI, PayloadSource),
// each satisfied structurally by pkg/rtr, pkg/session, pkg/transfer and
// pkg/objectstore without an import cycle back into this package.
//
// VERIFY is the sole authority on job success: Upload's own error is
// advisory, and a job can still terminate Success when Head confirms
// the object exists at the expected size after a spuriously-failed
// upload call.
package collector
