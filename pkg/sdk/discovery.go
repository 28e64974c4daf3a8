package sdk

import "os"

// AddrEnv names the environment variable holding the daemon address.
const AddrEnv = "CELERIX_APIFORGE_ADDR"

// DefaultAddr is used when AddrEnv is unset.
const DefaultAddr = "http://localhost:7002"

// Addr returns the daemon address from the environment, or DefaultAddr.
func Addr() string {
	if addr := os.Getenv(AddrEnv); addr != "" {
		return addr
	}
	return DefaultAddr
}

// New creates a client for the daemon found through the environment.
func New(opts ...Option) *Client {
	return NewClient(Addr(), opts...)
}
