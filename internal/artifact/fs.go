package artifact

import "os"

// Filesystem is the subset of filesystem operations required to persist
// artifacts.
type Filesystem interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	Remove(name string) error
}

type osFilesystem struct{}

// OSFilesystem returns a Filesystem backed by the os package.
func OSFilesystem() Filesystem { return osFilesystem{} }

func (osFilesystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (osFilesystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (osFilesystem) Remove(name string) error { return os.Remove(name) }
