package main

import (
	"encoding/json"
	"strings"
)

// Request is a statement sent as a JSON line. Plain text lines are accepted
// too and taken as the query.
type Request struct {
	Query string `json:"query"`
}

type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "query", "command" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains tabular results.
type QueryResponse struct {
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// CommandResponse carries the commands a data definition statement produced.
// They are for the client to run.
type CommandResponse struct {
	Statement string   `json:"statement"`
	Target    string   `json:"target,omitempty"`
	QueryID   string   `json:"query_id,omitempty"`
	Commands  []string `json:"commands"`
	TimeMs    float64  `json:"time_ms"`
}

type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	ExpiresIn     int    `json:"expires_in,omitempty"` // seconds
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses one request line.
func DecodeRequest(line string) (Request, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Request{Query: line}, nil
	}
	var req Request
	err := json.Unmarshal([]byte(line), &req)
	return req, err
}

func errorResponse(responseType string, err error) Response {
	return Response{Success: false, Type: responseType, Error: err.Error()}
}
