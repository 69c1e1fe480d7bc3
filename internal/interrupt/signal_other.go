//go:build !unix

package interrupt

// ignoreStop is a no-op where there is no terminal stop signal.
func ignoreStop() {}
