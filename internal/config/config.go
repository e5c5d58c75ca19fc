package config

import (
	"log"
	"time"
)

// RegistryConfig captures the tunables required to start the manifest
// registry server.
type RegistryConfig struct {
	Addr   string
	DBPath string
	Logger *log.Logger

	// MaxBundleBytes bounds the request body accepted by the publish
	// endpoint. Zero selects a default suitable for typical firmware
	// images.
	MaxBundleBytes int64

	// AllowTransient admits manifests signed with a transient key.
	// Off by default: a transient signature proves integrity but not
	// a durable publisher identity.
	AllowTransient bool

	ReadHeaderTimeout time.Duration
}
