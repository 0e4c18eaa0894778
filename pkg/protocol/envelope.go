// Package protocol defines the wire-level request and response envelopes
// exchanged over the framed JSON TCP connection (spec §3, §6), including
// the legacy no-"type" request shape kept for backward compatibility.
package protocol

import "encoding/json"

// Request is the decoded form of a client request envelope. Either Type is
// set (the canonical shape), or Code/Message are set and no Type is
// present (the legacy shape, §4.4).
type Request struct {
	Type    string          `json:"type,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// IsLegacy reports whether this request uses the legacy no-"type" shape.
func (r *Request) IsLegacy() bool {
	return r.Type == "" && (r.Code != "" || r.Message != "")
}

// Status values for the response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the wire-level response envelope. Result is only populated on
// success; Message is populated on error, and also carries the captured
// output in the legacy success shape. Fields specific to the legacy shape
// (Response/Source) are only populated for legacy requests.
type Response struct {
	Status   string `json:"status"`
	Result   any    `json:"result,omitempty"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Success builds a success response carrying the given result.
func Success(result any) *Response {
	return &Response{Status: StatusSuccess, Result: result}
}

// Failure builds an error response carrying the given message.
func Failure(message string) *Response {
	return &Response{Status: StatusError, Message: message}
}

// Legacy builds the legacy {response, message, source} success shape used
// only for requests that arrived without a "type" field (§4.4, §7).
func Legacy(message, source string) *Response {
	return &Response{Response: "OK", Message: message, Source: source}
}

// ExecuteCodeParams is the decoded params object for the execute_code
// command.
type ExecuteCodeParams struct {
	Code            string `json:"code"`
	CodeIsBase64    bool   `json:"code_is_base64,omitempty"`
	ReturnAsBase64  bool   `json:"return_as_base64,omitempty"`
	SendAsBase64    bool   `json:"send_as_base64,omitempty"`
}

// ExecuteCodeResult is the result object for the execute_code command.
type ExecuteCodeResult struct {
	Executed       bool           `json:"executed"`
	Result         string         `json:"result"`
	ResultIsBase64 bool           `json:"result_is_base64,omitempty"`
	Output         ExecuteOutput  `json:"output"`
}

// ExecuteOutput carries the captured stdout/stderr streams.
type ExecuteOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// GetObjectInfoParams is the decoded params object for get_object_info.
type GetObjectInfoParams struct {
	ObjectName string `json:"object_name"`
}

// GetViewportScreenshotParams is the decoded params object for
// get_viewport_screenshot.
type GetViewportScreenshotParams struct {
	MaxSize  int    `json:"max_size,omitempty"`
	Filepath string `json:"filepath,omitempty"`
	Format   string `json:"format,omitempty"`
}

// PutPersistDataParams is the decoded params object for put_persist_data.
type PutPersistDataParams struct {
	Key  string `json:"key"`
	Data any    `json:"data"`
}

// GetPersistDataParams is the decoded params object for get_persist_data.
type GetPersistDataParams struct {
	Key     string `json:"key"`
	Default any    `json:"default"`
}

// RemovePersistDataParams is the decoded params object for
// remove_persist_data.
type RemovePersistDataParams struct {
	Key string `json:"key"`
}
