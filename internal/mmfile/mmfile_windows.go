//go:build windows

package mmfile

import "os"

// Map reads the entire file; Windows file mapping support is not wired up,
// matching the teacher's own fallback for this platform.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}
