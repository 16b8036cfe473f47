package service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

var (
	ErrCouldNotParseBody = errors.New("could not parse request body")
	ErrCouldNotReadBody  = errors.New("could not read request body")
)

// httpResp is the envelope for every REST response.
type httpResp struct {
	Status  int    `json:"status"`
	IsError bool   `json:"is_error"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const maxBodyBytes = 1 << 20

func getBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return ErrCouldNotReadBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrCouldNotParseBody
	}
	return nil
}

func sendResponse(w http.ResponseWriter, resp httpResp) {
	out, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": 500, "is_error": true, "error": "could not marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(out)
}

func sendData(w http.ResponseWriter, data any) {
	sendResponse(w, httpResp{Status: http.StatusOK, Data: data})
}

func sendError(w http.ResponseWriter, status int, err error) {
	sendResponse(w, httpResp{Status: status, IsError: true, Error: err.Error()})
}
