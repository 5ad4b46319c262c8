package analysis

import "errors"

// ErrInvalidInput indicates the request carried no usable content field.
var ErrInvalidInput = errors.New("text or video URL is required")

// ErrUpstreamAuth indicates the service could not obtain a provider access
// token. No analysis can proceed without one.
var ErrUpstreamAuth = errors.New("upstream auth failed")

// ErrUpstreamCall indicates a provider call failed or returned unusable data
// mid-pipeline. The whole orchestration aborts; nothing is retried.
var ErrUpstreamCall = errors.New("upstream call failed")

// ErrNotFound indicates the record is absent or not visible to the caller.
var ErrNotFound = errors.New("record not found")
