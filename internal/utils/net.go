package utils

import "net"

// IsAddrAvailable checks if a given TCP listen address is available for use.
// It attempts to listen on the address and returns true if successful,
// indicating that the address is free. If an error occurs while trying to
// listen, it returns false, indicating that the address is already in use
// or cannot be bound.
//
// Parameters:
//   - addr: A listen address in "host:port" or ":port" form.
//
// Returns:
//   - bool: True if the address is available, false otherwise.
func IsAddrAvailable(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
