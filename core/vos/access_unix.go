//go:build !windows
// +build !windows

package vos

import "golang.org/x/sys/unix"

// searchable checks the real user's permission to enter path.
func searchable(path string) error {
	return unix.Access(path, unix.X_OK)
}
