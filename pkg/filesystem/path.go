package filesystem

import (
	"fmt"
	"strings"

	"github.com/weberc2/diskfs/pkg/directory"
	"github.com/weberc2/diskfs/pkg/inode"
)

// Basename returns the path component after the last `/`, or the
// whole path when there is none. An empty basename names the
// directory itself.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// resolveDir walks path against the process's working directory (or
// the root for absolute paths and processes without one) and returns
// a handle onto the resulting directory. With includeLast the final
// component is walked too; otherwise the walk stops at its parent.
// Any missing component, descent into a non-directory, or arrival at
// a removed directory fails the walk.
func (fs *FileSys) resolveDir(
	p *Process,
	path string,
	includeLast bool,
) (*directory.Dir, error) {
	wrap := func(err error) error {
		return fmt.Errorf("resolving `%s`: %w", path, err)
	}

	if path == "" {
		return nil, wrap(BadPathErr)
	}

	var start *inode.Inode
	var err error
	if strings.HasPrefix(path, "/") || p.cwd == nil {
		start, err = fs.inodes.Open(fs.root)
		if err != nil {
			return nil, wrap(err)
		}
	} else {
		start = fs.inodes.Reopen(p.cwd)
	}
	if start.Removed() {
		fs.inodes.Close(start)
		return nil, wrap(directory.NotFoundErr)
	}

	dir, err := directory.Open(fs.dev, fs.fm, fs.inodes, start)
	if err != nil {
		fs.inodes.Close(start)
		return nil, wrap(err)
	}

	tokens := splitPath(path)
	if !includeLast && len(tokens) > 0 {
		tokens = tokens[:len(tokens)-1]
	}

	for _, token := range tokens {
		sector, ok, err := dir.Lookup(token)
		if err != nil {
			dir.Close()
			return nil, wrap(err)
		}
		if !ok {
			dir.Close()
			return nil, wrap(directory.NotFoundErr)
		}

		child, err := fs.inodes.Open(sector)
		if err != nil {
			dir.Close()
			return nil, wrap(err)
		}
		if !child.IsDir() {
			fs.inodes.Close(child)
			dir.Close()
			return nil, wrap(directory.NotADirErr)
		}
		if child.Removed() {
			fs.inodes.Close(child)
			dir.Close()
			return nil, wrap(directory.NotFoundErr)
		}

		sub, err := directory.Open(fs.dev, fs.fm, fs.inodes, child)
		if err != nil {
			fs.inodes.Close(child)
			dir.Close()
			return nil, wrap(err)
		}
		dir.Close()
		dir = sub
	}

	return dir, nil
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	tokens := parts[:0]
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
