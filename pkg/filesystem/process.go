package filesystem

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/directory"
	"github.com/weberc2/diskfs/pkg/file"
	"github.com/weberc2/diskfs/pkg/inode"
)

// FdStart is the first file descriptor handed out; 0 and 1 belong to
// the console at the syscall boundary.
const FdStart = 2

// Process is one kernel thread's view of the filesystem: a working
// directory and a private descriptor table. Descriptor values are
// never shared across processes.
type Process struct {
	fs     *FileSys
	pid    int
	cwd    *inode.Inode // nil means the root directory
	fdNext int
	files  map[int]*openFile
}

// openFile is one descriptor-table slot. Exactly one of file and dir
// is set; directories carry their iterator in the Dir handle.
type openFile struct {
	file *file.File
	dir  *directory.Dir
}

func (of *openFile) inode() *inode.Inode {
	if of.dir != nil {
		return of.dir.Inode()
	}
	return of.file.Inode()
}

func (of *openFile) close() error {
	if of.dir != nil {
		return of.dir.Close()
	}
	return of.file.Close()
}

// Spawn registers a process with the filesystem. Its working
// directory starts at the root.
func (fs *FileSys) Spawn(pid int) (*Process, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.procs[pid]; ok {
		return nil, fmt.Errorf("spawning process `%d`: %w", pid, ProcExists)
	}

	p := &Process{
		fs:     fs,
		pid:    pid,
		fdNext: FdStart,
		files:  make(map[int]*openFile),
	}
	fs.procs[pid] = p
	return p, nil
}

// Exit closes everything the process still holds open and drops its
// working-directory reference.
func (p *Process) Exit() {
	fs := p.fs
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for fd, of := range p.files {
		of.close()
		delete(p.files, fd)
	}
	p.dropCwd()
	delete(fs.procs, p.pid)
}

// dropCwd releases the working-directory reference; callers hold the
// lock.
func (p *Process) dropCwd() {
	if p.cwd == nil {
		return
	}
	sector := p.cwd.Number()
	p.fs.cwdCount[sector]--
	if p.fs.cwdCount[sector] == 0 {
		delete(p.fs.cwdCount, sector)
	}
	p.fs.inodes.Close(p.cwd)
	p.cwd = nil
}
