package services

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GatewayErrorKind is how a gateway call failed.
type GatewayErrorKind string

const (
	ConnectionFailure GatewayErrorKind = "connection_failure"
	ClientRejected    GatewayErrorKind = "client_rejected"
	ServerAnomaly     GatewayErrorKind = "server_anomaly"
)

// Audience says who has to act on a gateway error.
type Audience string

const (
	AudiencePlatform Audience = "platform"
	AudienceUser     Audience = "user"
)

// GatewayError is the only error type gateway calls return.
// Message is the provider's text and is only safe to show to end users
// when Audience is AudienceUser.
type GatewayError struct {
	Kind       GatewayErrorKind
	Audience   Audience
	Message    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s (%d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// UserFacing reports whether the provider message may be shown to the caller.
func (e *GatewayError) UserFacing() bool {
	return e.Kind == ClientRejected && e.Audience == AudienceUser
}

// Transient reports whether the same request may succeed if retried.
func (e *GatewayError) Transient() bool {
	return !e.UserFacing()
}

//go:embed gateway_errors.yaml
var defaultErrorTable []byte

type errorRule struct {
	Message  string   `yaml:"message"`
	Prefix   string   `yaml:"prefix"`
	Audience Audience `yaml:"audience"`
}

// ErrorTable maps provider messages to an audience.
type ErrorTable struct {
	Version int         `yaml:"version"`
	Rules   []errorRule `yaml:"rules"`
}

// ParseErrorTable decodes and validates a YAML error table.
func ParseErrorTable(data []byte) (*ErrorTable, error) {
	var table ErrorTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse error table: %w", err)
	}
	if table.Version <= 0 {
		return nil, errors.New("error table: version is required")
	}
	for i, r := range table.Rules {
		if (r.Message == "") == (r.Prefix == "") {
			return nil, fmt.Errorf("error table rule %d: exactly one of message or prefix is required", i)
		}
		if r.Audience != AudiencePlatform && r.Audience != AudienceUser {
			return nil, fmt.Errorf("error table rule %d: unknown audience %q", i, r.Audience)
		}
	}
	return &table, nil
}

// DefaultErrorTable returns the table compiled into the binary.
func DefaultErrorTable() *ErrorTable {
	table, err := ParseErrorTable(defaultErrorTable)
	if err != nil {
		panic(err)
	}
	return table
}

// LoadErrorTable reads a table from path, or returns the default when path
// is empty.
func LoadErrorTable(path string) (*ErrorTable, error) {
	if path == "" {
		return DefaultErrorTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error table: %w", err)
	}
	return ParseErrorTable(data)
}

// Audience looks a message up. Unmapped messages are platform errors so an
// unknown failure is never blamed on the user.
func (t *ErrorTable) Audience(message string) (Audience, bool) {
	msg := strings.TrimSpace(message)
	for _, r := range t.Rules {
		if r.Message != "" && r.Message == msg {
			return r.Audience, true
		}
		if r.Prefix != "" && strings.HasPrefix(msg, r.Prefix) {
			return r.Audience, true
		}
	}
	return AudiencePlatform, false
}

// Classify turns an HTTP status and provider message into a GatewayError.
func (t *ErrorTable) Classify(status int, message string) *GatewayError {
	switch {
	case status >= http.StatusInternalServerError:
		return &GatewayError{Kind: ServerAnomaly, Audience: AudiencePlatform, Message: message, StatusCode: status}
	case status >= http.StatusBadRequest:
		audience, _ := t.Audience(message)
		return &GatewayError{Kind: ClientRejected, Audience: audience, Message: message, StatusCode: status}
	default:
		return &GatewayError{Kind: ServerAnomaly, Audience: AudiencePlatform, Message: message, StatusCode: status}
	}
}
