package main

import (
	"os"

	"github.com/dtbkit/dtbkit/internal/logging"
	"github.com/dtbkit/dtbkit/internal/mmfile"
	"github.com/dtbkit/dtbkit/pkg/dt"
)

// openDoc loads path per --mmap and validates it as a DTB. The returned
// cleanup must be called once the Doc and every view derived from it are no
// longer needed.
func openDoc(path string) (*dt.Doc, func() error, error) {
	var (
		raw     []byte
		cleanup func() error
		err     error
	)
	if useMmap {
		raw, cleanup, err = mmfile.Map(path)
	} else {
		raw, err = os.ReadFile(path)
		cleanup = func() error { return nil }
	}
	if err != nil {
		return nil, func() error { return nil }, err
	}

	logging.L.Debug("opened dtb", "path", path, "bytes", len(raw), "mmap", useMmap)

	d, err := dt.FromRaw(raw)
	if err != nil {
		cleanup()
		return nil, func() error { return nil }, err
	}
	return d, cleanup, nil
}
