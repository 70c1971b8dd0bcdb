package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

type ApiError struct {
	Err        error  `json:"-"`
	StatusCode int    `json:"-"`
	StatusText string `json:"statusText"`
	Message    string `json:"message"`
}

var (
	ApiErrBadRequestRoomId = &ApiError{
		StatusCode: http.StatusBadRequest,
		StatusText: "invalid room id",
		Message:    "the room id must be a whole number",
	}
	ApiErrRoomNotFound = &ApiError{
		StatusCode: http.StatusNotFound,
		StatusText: "room not found",
		Message:    fmt.Sprintf("rooms are numbered 0 to %d", NumberOfRooms-1),
	}
	ApiErrMessageRequired = &ApiError{
		StatusCode: http.StatusBadRequest,
		StatusText: "message required",
		Message:    "you must provide a message",
	}
	ApiErrInvalidMessage = &ApiError{
		StatusCode: http.StatusBadRequest,
		StatusText: "invalid message",
		Message:    "a message must fit on a single line",
	}
)

func (e *ApiError) Error() string {
	return fmt.Sprintf("%d %s %s err: %v", e.StatusCode, e.StatusText, e.Message, e.Err)
}

func (e *ApiError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func ApiErrBadRequest(err error) *ApiError {
	return &ApiError{
		Err:        err,
		StatusCode: http.StatusBadRequest,
		StatusText: "bad request",
		Message:    err.Error(),
	}
}

func ApiErrUnexpected(err error) *ApiError {
	return &ApiError{
		Err:        err,
		StatusCode: http.StatusInternalServerError,
		StatusText: "unexpected error",
		Message:    "unexpected error",
	}
}
