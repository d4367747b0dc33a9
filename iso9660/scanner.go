package iso9660

import (
	"io"
	"os"
	"path/filepath"
)

// osFileSource is a FileSource backed by a path on the host filesystem, opened lazily
// so a large tree can be scanned without holding thousands of file descriptors open.
type osFileSource struct {
	path string
}

func (s osFileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

// ScanDirectory walks root on the host filesystem and returns a FileInput describing
// every regular file, directory, and symlink beneath it, suitable for
// FormatOptions.Files. This is the only place in the package that reads a host
// directory tree (BuildToFile only creates its output file); everything downstream of
// FileInput works against the FileSource abstraction instead.
func ScanDirectory(root string) (*FileInput, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, wrapf(KindIoError, root, err, "resolving absolute path")
	}

	input := NewFileInput()
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == absRoot {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		isoPath := "/" + filepath.ToSlash(rel)

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			input.Append(FileEntry{
				Path:      isoPath,
				ModTime:   info.ModTime(),
				SymlinkTo: filepath.ToSlash(target),
			})
			return nil
		}
		if info.IsDir() {
			input.Append(FileEntry{Path: isoPath, IsDir: true, ModTime: info.ModTime(), Mode: uint32(info.Mode().Perm()) | 0o040000})
			return nil
		}
		if info.Mode().IsRegular() {
			input.Append(FileEntry{
				Path:    isoPath,
				Source:  osFileSource{path: path},
				Length:  uint64(info.Size()),
				ModTime: info.ModTime(),
				Mode:    uint32(info.Mode().Perm()) | 0o100000,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapf(KindIoError, root, err, "walking source directory")
	}
	return input, nil
}
