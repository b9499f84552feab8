package filesystem

import (
	"github.com/weberc2/diskfs/pkg/directory"
	"github.com/weberc2/diskfs/pkg/file"
	"github.com/weberc2/diskfs/pkg/inode"
	. "github.com/weberc2/diskfs/pkg/types"
)

// The operations below make up the surface exposed to the syscall
// layer. Every one of them holds the filesystem lock for its whole
// duration, nested block I/O and allocator calls included, so each
// call observes and produces a consistent persistent state. Failures
// surface as booleans and -1 sentinels; the specific cause stays
// internal.

// Create makes a zero-extended regular file of the given size.
func (p *Process) Create(path string, size Byte) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir, err := fs.resolveDir(p, path, false)
	if err != nil {
		return false
	}
	defer dir.Close()

	base := Basename(path)
	if base == "" || base == "." || base == ".." || len(base) > NameMax {
		return false
	}
	if _, exists, err := dir.Lookup(base); err != nil || exists {
		return false
	}

	sector, ok := fs.fm.Allocate(1)
	if !ok {
		return false
	}

	created, err := fs.inodes.Create(sector, size, false)
	if err != nil || !created {
		// Data sectors a failed extension already claimed stay
		// claimed; only the inode sector goes back.
		fs.fm.Release(sector, 1)
		return false
	}

	if err := dir.Add(base, sector, false); err != nil {
		fs.fm.Release(sector, 1)
		return false
	}
	return true
}

// Remove unlinks the object at path. Open handles keep working; the
// object's sectors are reclaimed at last close. Non-empty directories,
// the root, and directories in use as another process's working
// directory stay put.
func (p *Process) Remove(path string) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir, err := fs.resolveDir(p, path, false)
	if err != nil {
		return false
	}
	defer dir.Close()

	base := Basename(path)
	if base == "" || base == "." || base == ".." {
		return false
	}

	// A directory is busy when it anchors some other process's
	// working directory; a process may remove its own (leaving itself
	// stranded in a removed directory, like rmdir of the cwd).
	busy := func(sector SectorIdx) bool {
		count := fs.cwdCount[sector]
		if p.cwd != nil && p.cwd.Number() == sector {
			count--
		}
		return sector == fs.root || count > 0
	}
	return dir.Remove(base, busy) == nil
}

// Open opens a file or directory and returns its descriptor, or -1.
// Directory descriptors additionally carry a readdir iterator.
func (p *Process) Open(path string) int {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	base := Basename(path)

	var ino *inode.Inode
	if base == "" {
		// Trailing slash (or the root itself): the walk resolves the
		// directory directly.
		dir, err := fs.resolveDir(p, path, true)
		if err != nil {
			return -1
		}
		ino = fs.inodes.Reopen(dir.Inode())
		dir.Close()
	} else {
		dir, err := fs.resolveDir(p, path, false)
		if err != nil {
			return -1
		}
		sector, ok, err := dir.Lookup(base)
		if err != nil || !ok {
			dir.Close()
			return -1
		}
		dir.Close()
		ino, err = fs.inodes.Open(sector)
		if err != nil {
			return -1
		}
	}

	if ino.Removed() {
		fs.inodes.Close(ino)
		return -1
	}

	of := &openFile{}
	if ino.IsDir() {
		d, err := directory.Open(fs.dev, fs.fm, fs.inodes, ino)
		if err != nil {
			fs.inodes.Close(ino)
			return -1
		}
		of.dir = d
	} else {
		of.file = file.New(fs.dev, fs.fm, fs.inodes, ino)
	}

	fd := p.fdNext
	p.fdNext++
	p.files[fd] = of
	return fd
}

// Read copies up to len(buf) bytes from the descriptor's cursor.
// Returns the count read (short at end-of-file), or -1 for a bad or
// directory descriptor.
func (p *Process) Read(fd int, buf []byte) int {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok || of.file == nil {
		return -1
	}
	n, err := of.file.Read(buf)
	if err != nil {
		return -1
	}
	return int(n)
}

// Write copies len(buf) bytes at the descriptor's cursor, growing the
// file as needed. Returns the count written, 0 when the inode denies
// writes, and -1 when the descriptor is bad, names a directory, or
// the file cannot grow far enough.
func (p *Process) Write(fd int, buf []byte) int {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok || of.file == nil {
		return -1
	}
	n, err := of.file.Write(buf)
	if err != nil {
		return -1
	}
	return int(n)
}

// Seek repositions the descriptor's cursor. Seeking past end-of-file
// is legal; the gap zero-fills on the next write.
func (p *Process) Seek(fd int, pos Byte) {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if of, ok := p.files[fd]; ok && of.file != nil {
		of.file.Seek(pos)
	}
}

// Tell reports the descriptor's cursor.
func (p *Process) Tell(fd int) Byte {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if of, ok := p.files[fd]; ok && of.file != nil {
		return of.file.Tell()
	}
	return 0
}

// Filesize reports the descriptor's file length, or -1.
func (p *Process) Filesize(fd int) int {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if of, ok := p.files[fd]; ok {
		return int(of.inode().Length())
	}
	return -1
}

// Close releases the descriptor.
func (p *Process) Close(fd int) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok {
		return false
	}
	delete(p.files, fd)
	return of.close() == nil
}

// DenyWrite blocks writes to the descriptor's inode until AllowWrite
// or close; at most one grip per descriptor.
func (p *Process) DenyWrite(fd int) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok || of.file == nil {
		return false
	}
	of.file.DenyWrite()
	return true
}

// AllowWrite releases the descriptor's deny-write grip.
func (p *Process) AllowWrite(fd int) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok || of.file == nil {
		return false
	}
	of.file.AllowWrite()
	return true
}

// Mkdir creates an empty directory whose `..` names its parent.
func (p *Process) Mkdir(path string) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir, err := fs.resolveDir(p, path, false)
	if err != nil {
		return false
	}
	defer dir.Close()

	base := Basename(path)
	if base == "" || base == "." || base == ".." || len(base) > NameMax {
		return false
	}
	if _, exists, err := dir.Lookup(base); err != nil || exists {
		return false
	}

	sector, ok := fs.fm.Allocate(1)
	if !ok {
		return false
	}

	created, err := fs.inodes.Create(sector, DirEntrySize, true)
	if err != nil || !created {
		fs.fm.Release(sector, 1)
		return false
	}

	ino, err := fs.inodes.Open(sector)
	if err != nil {
		fs.fm.Release(sector, 1)
		return false
	}
	sub, err := directory.Open(fs.dev, fs.fm, fs.inodes, ino)
	if err != nil {
		fs.inodes.Close(ino)
		fs.fm.Release(sector, 1)
		return false
	}
	if err := sub.Init(dir.Inode().Number()); err != nil {
		sub.Close()
		fs.fm.Release(sector, 1)
		return false
	}

	if err := dir.Add(base, sector, true); err != nil {
		sub.Close()
		fs.fm.Release(sector, 1)
		return false
	}
	return sub.Close() == nil
}

// Chdir repoints the process's working directory.
func (p *Process) Chdir(path string) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir, err := fs.resolveDir(p, path, true)
	if err != nil {
		return false
	}

	next := fs.inodes.Reopen(dir.Inode())
	dir.Close()

	p.dropCwd()
	p.cwd = next
	fs.cwdCount[next.Number()]++
	return true
}

// Readdir returns the next entry name from a directory descriptor's
// iterator, skipping free slots and the `.`/`..` entries.
func (p *Process) Readdir(fd int) (string, bool) {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	if !ok || of.dir == nil {
		return "", false
	}
	name, ok, err := of.dir.ReadNext()
	if err != nil {
		return "", false
	}
	return name, ok
}

// Isdir reports whether the descriptor names a directory.
func (p *Process) Isdir(fd int) bool {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	of, ok := p.files[fd]
	return ok && of.dir != nil
}

// Inumber reports the descriptor's inode number (its sector), or -1.
func (p *Process) Inumber(fd int) int {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if of, ok := p.files[fd]; ok {
		return int(of.inode().Number())
	}
	return -1
}
