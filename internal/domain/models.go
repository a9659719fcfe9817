package domain

import (
	"net/http"
	"time"
)

// ProbeConfig is read once per invocation and never mutated.
type ProbeConfig struct {
	EndpointURL    string `json:"endpoint_url"`
	Method         string `json:"method"`
	ExpectedStatus int    `json:"expected_status"`
	ProjectTag     string `json:"project"`
	EnvironmentTag string `json:"environment"`
}

// Result is what a passing invocation returns.
type Result struct {
	Success    bool  `json:"success"`
	StatusCode int   `json:"status_code"`
	LatencyMS  int64 `json:"latency_ms"`
}

// RawResponse holds the fully-read response; discarded after validation.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       string
}

type RunID string

// ErrorKind classifies a failed run.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindConfig     ErrorKind = "config"
	ErrorKindRequest    ErrorKind = "request"
	ErrorKindValidation ErrorKind = "validation"
)

// RunRecord is the persisted summary of one invocation.
type RunRecord struct {
	ID          RunID     `json:"id"`
	Project     string    `json:"project"`
	Environment string    `json:"environment"`
	Endpoint    string    `json:"endpoint"`
	Success     bool      `json:"success"`
	StatusCode  int       `json:"status_code,omitempty"`
	LatencyMS   int64     `json:"latency_ms"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}
