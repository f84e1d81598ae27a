//go:build !unix

package scanner

import (
	"github.com/spf13/afero"
)

// probeWritable checks that new pages can be created in dir.
func probeWritable(fsys afero.Fs, dir string) error {
	return probeByTempFile(fsys, dir)
}
