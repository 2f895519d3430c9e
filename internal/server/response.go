package server

import "net/http"

type errorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func internalError(err error) (int, errorResponse) {
	return http.StatusInternalServerError, errorResponse{Message: err.Error()}
}

func badRequest(err error) (int, errorResponse) {
	return http.StatusBadRequest, errorResponse{Message: err.Error()}
}

func notFound(err error) (int, errorResponse) {
	return http.StatusNotFound, errorResponse{Message: err.Error()}
}

func unprocessableEntity(message string, details map[string]string) (int, errorResponse) {
	return http.StatusUnprocessableEntity, errorResponse{Message: message, Details: details}
}
