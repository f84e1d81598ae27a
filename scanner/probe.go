package scanner

import (
	"github.com/spf13/afero"
)

func probeByTempFile(fsys afero.Fs, dir string) error {
	f, err := afero.TempFile(fsys, dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return fsys.Remove(name)
}
