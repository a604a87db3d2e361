package client

import (
	"strings"

	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/tidwall/gjson"
)

// ExecutionTimeExceededMarker is the substring ServiceNOW puts in the error
// message of a transaction cancelled for running too long.
const ExecutionTimeExceededMarker = "maximum execution time exceeded"

// ErrorMessage extracts the error message from a response.
// A JSON body yields its error.message member ("" when absent); any other
// body yields the raw text.
func ErrorMessage(resp *Response) string {
	if resp == nil {
		return ""
	}
	if !gjson.ValidBytes(resp.Body) {
		return resp.Text()
	}
	return gjson.GetBytes(resp.Body, "error.message").String()
}

// ClassifyMessage classifies an extracted error message.
func ClassifyMessage(message string) ErrorClass {
	if strings.Contains(message, ExecutionTimeExceededMarker) {
		return ErrorClassExecutionTimeExceeded
	}
	return ErrorClassRequestFailed
}

// ProcessResponse turns a transport response into a page.
//
// A non-success response becomes a *ServiceNowError classified as
// execution_time_exceeded or request_failed. A success response is decoded;
// a body that is not a JSON object is returned as a raw page, not an error.
func ProcessResponse(resp *Response) (*record.Page, error) {
	if err := resp.RaiseForStatus(); err != nil {
		return nil, err
	}
	return record.Decode(resp.Body), nil
}
