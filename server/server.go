package server

import "context"

// Server is a transport-agnostic server lifecycle.
type Server interface {
	Options() Options
	Start() error
	Stop(ctx context.Context) error
	String() string
}
