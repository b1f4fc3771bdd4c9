package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError records a non-2xx response. Its StatusCode method lets callers
// classify failures without importing this package.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("restapi: server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("restapi: server returned %d", e.Code)
}

// StatusCode reports the HTTP status of the failed response.
func (e *StatusError) StatusCode() int {
	return e.Code
}

func newStatusError(resp *http.Response) *StatusError {
	serr := &StatusError{Code: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return serr
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "":
			serr.Message = body.Message
		case body.Error != "":
			serr.Message = body.Error
		}
		return serr
	}

	serr.Message = strings.TrimSpace(string(data))
	return serr
}
