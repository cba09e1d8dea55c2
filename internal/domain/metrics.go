package domain

import "time"

// DispatchStatus labels the outcome of a dispatched tool call.
type DispatchStatus string

const (
	// DispatchStatusSuccess indicates the handler returned a payload.
	DispatchStatusSuccess DispatchStatus = "success"
	// DispatchStatusError indicates the dispatch failed.
	DispatchStatusError DispatchStatus = "error"
)

// DispatchReason describes why a dispatch ended with a status.
type DispatchReason string

const (
	// DispatchReasonSuccess indicates a non-empty, non-error payload.
	DispatchReasonSuccess DispatchReason = "success"
	// DispatchReasonNoResult indicates an error-shaped payload (not found, no tags).
	DispatchReasonNoResult DispatchReason = "no_result"
	// DispatchReasonToolNotFound indicates an unknown tool name.
	DispatchReasonToolNotFound DispatchReason = "tool_not_found"
	// DispatchReasonInvalidArguments indicates a schema violation.
	DispatchReasonInvalidArguments DispatchReason = "invalid_arguments"
	// DispatchReasonUnknown indicates an unclassified failure.
	DispatchReasonUnknown DispatchReason = "unknown"
)

// DispatchMetric captures metrics for one dispatched call.
type DispatchMetric struct {
	Tool     string
	Status   DispatchStatus
	Reason   DispatchReason
	Results  int
	Duration time.Duration
}

// Metrics records operational metrics for dispatch and the catalog.
type Metrics interface {
	ObserveDispatch(metric DispatchMetric)
	SetCatalogEntries(count int)
}
