package rpckit

import (
	"encoding/json"
	"errors"
	"strings"
)

var errInvalidParams = errors.New("invalid params")

// DecodeNoParams accepts an absent, null or empty array params value.
func DecodeNoParams(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 0 {
		return nil
	}
	return errInvalidParams
}

func DecodeUint64Param(raw json.RawMessage) (uint64, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) != 1 {
		return 0, errInvalidParams
	}
	text := strings.TrimSpace(string(arr[0]))
	if text == "" || text[0] < '0' || text[0] > '9' || strings.ContainsAny(text, ".eE") {
		return 0, errInvalidParams
	}
	var id uint64
	if err := json.Unmarshal([]byte(text), &id); err != nil {
		return 0, errInvalidParams
	}
	return id, nil
}

func DecodeThreeStringParams(raw json.RawMessage) (string, string, string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 3 {
		return arr[0], arr[1], arr[2], nil
	}
	return "", "", "", errInvalidParams
}

// DecodeOptionalStringParam accepts no params or a single string.
func DecodeOptionalStringParam(raw json.RawMessage) (string, error) {
	if DecodeNoParams(raw) == nil {
		return "", nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return strings.TrimSpace(arr[0]), nil
	}
	return "", errInvalidParams
}
