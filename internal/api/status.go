package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response codes surfaced to web clients, mapped onto their HTTP equivalents.
const (
	CodeSuccess             = "SUCCESS"
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeDoesNotExist        = "DOES_NOT_EXIST"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

func httpStatus(code string) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeDoesNotExist:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Code   string `json:"code"`
	Remark string `json:"remark"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeFailure(w http.ResponseWriter, code, remark string) {
	writeJSON(w, httpStatus(code), errorResponse{Code: code, Remark: remark})
}

func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
