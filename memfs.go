package textpress

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

var _ absfs.Filer = (*memFS)(nil)

// normalizePath cleans name and strips leading slashes so absolute and
// relative names address the same entry. The root is ".".
func normalizePath(name string) string {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, "/")
	if name == "" {
		name = "."
	}
	return name
}

// memFS is a small in-memory filesystem. The store and the command use it
// when no disk is wanted.
type memFS struct {
	files map[string]*memNode
	dirs  map[string]time.Time
	mu    sync.RWMutex
}

type memNode struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates a new in-memory filesystem
func NewMemFS() absfs.Filer {
	return &memFS{
		files: make(map[string]*memNode),
		dirs:  map[string]time.Time{".": time.Now()},
	}
}

func (mfs *memFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, ok := mfs.dirs[name]; ok {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
		}
		return &memDir{mfs: mfs, name: name}, nil
	}

	node, exists := mfs.files[name]
	if !exists {
		if flag&os.O_CREATE == 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		if _, ok := mfs.dirs[path.Dir(name)]; !ok {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		node = &memNode{mode: perm, modTime: time.Now()}
		mfs.files[name] = node
	} else if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	}

	if flag&os.O_TRUNC != 0 {
		node.data = nil
		node.modTime = time.Now()
	}

	f := &memFile{mfs: mfs, node: node, name: name, flag: flag}
	if flag&os.O_APPEND != 0 {
		f.pos = int64(len(node.data))
	}
	return f, nil
}

func (mfs *memFS) Mkdir(name string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, ok := mfs.dirs[name]; ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if _, ok := mfs.files[name]; ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if _, ok := mfs.dirs[path.Dir(name)]; !ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrNotExist}
	}
	mfs.dirs[name] = time.Now()
	return nil
}

func (mfs *memFS) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; exists {
		delete(mfs.files, name)
		return nil
	}
	if _, exists := mfs.dirs[name]; exists && name != "." {
		if len(mfs.children(name)) > 0 {
			return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
		}
		delete(mfs.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

// Rename moves a file. Directories cannot be renamed.
func (mfs *memFS) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	oldpath = normalizePath(oldpath)
	newpath = normalizePath(newpath)

	node, exists := mfs.files[oldpath]
	if !exists {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	if _, ok := mfs.dirs[path.Dir(newpath)]; !ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	mfs.files[newpath] = node
	if newpath != oldpath {
		delete(mfs.files, oldpath)
	}
	return nil
}

func (mfs *memFS) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	info, ok := mfs.info(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return info, nil
}

// info must be called with mfs.mu held.
func (mfs *memFS) info(name string) (*memFileInfo, bool) {
	if node, ok := mfs.files[name]; ok {
		return &memFileInfo{
			name:    path.Base(name),
			size:    int64(len(node.data)),
			mode:    node.mode,
			modTime: node.modTime,
		}, true
	}
	if modTime, ok := mfs.dirs[name]; ok {
		return &memFileInfo{
			name:    path.Base(name),
			mode:    fs.ModeDir | 0755,
			modTime: modTime,
		}, true
	}
	return nil, false
}

// children returns the sorted entries directly inside dir. It must be
// called with mfs.mu held.
func (mfs *memFS) children(dir string) []*memFileInfo {
	var infos []*memFileInfo
	add := func(p string) {
		if p != "." && path.Dir(p) == dir {
			info, _ := mfs.info(p)
			infos = append(infos, info)
		}
	}
	for p := range mfs.files {
		add(p)
	}
	for p := range mfs.dirs {
		add(p)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].name < infos[j].name })
	return infos
}

func (mfs *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	if _, ok := mfs.dirs[name]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	infos := mfs.children(name)
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (mfs *memFS) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	node, ok := mfs.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), node.data...), nil
}

func (mfs *memFS) Sub(dir string) (fs.FS, error) {
	return absfs.FilerToFS(mfs, normalizePath(dir))
}

// Chmod changes file permissions
func (mfs *memFS) Chmod(name string, mode os.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	node, exists := mfs.files[name]
	if !exists {
		return &fs.PathError{Op: "chmod", Path: name, Err: fs.ErrNotExist}
	}
	node.mode = mode
	return nil
}

// Chtimes changes file modification time; access times are not tracked.
func (mfs *memFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	node, exists := mfs.files[name]
	if !exists {
		return &fs.PathError{Op: "chtimes", Path: name, Err: fs.ErrNotExist}
	}
	node.modTime = mtime
	return nil
}

// Chown is a no-op for memFS
func (mfs *memFS) Chown(name string, uid, gid int) error {
	if _, err := mfs.Stat(name); err != nil {
		return &fs.PathError{Op: "chown", Path: name, Err: fs.ErrNotExist}
	}
	return nil
}

// memFile is an open handle. Handles share the node, so writes are seen
// by every other handle on the same file.
type memFile struct {
	mfs    *memFS
	node   *memNode
	name   string
	flag   int
	pos    int64
	closed bool
}

func (mf *memFile) Name() string { return mf.name }

func (mf *memFile) readable() error {
	if mf.closed {
		return fs.ErrClosed
	}
	if mf.flag&os.O_WRONLY != 0 {
		return &fs.PathError{Op: "read", Path: mf.name, Err: fs.ErrPermission}
	}
	return nil
}

func (mf *memFile) writable() error {
	if mf.closed {
		return fs.ErrClosed
	}
	if mf.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return &fs.PathError{Op: "write", Path: mf.name, Err: fs.ErrPermission}
	}
	return nil
}

func (mf *memFile) Read(p []byte) (int, error) {
	n, err := mf.ReadAt(p, mf.pos)
	mf.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (mf *memFile) ReadAt(b []byte, off int64) (int, error) {
	if err := mf.readable(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "readat", Path: mf.name, Err: errors.New("negative offset")}
	}

	mf.mfs.mu.RLock()
	defer mf.mfs.mu.RUnlock()
	if off >= int64(len(mf.node.data)) {
		return 0, io.EOF
	}
	n := copy(b, mf.node.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (mf *memFile) Write(p []byte) (int, error) {
	if mf.flag&os.O_APPEND != 0 {
		mf.mfs.mu.RLock()
		mf.pos = int64(len(mf.node.data))
		mf.mfs.mu.RUnlock()
	}
	n, err := mf.WriteAt(p, mf.pos)
	mf.pos += int64(n)
	return n, err
}

func (mf *memFile) WriteAt(b []byte, off int64) (int, error) {
	if err := mf.writable(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "writeat", Path: mf.name, Err: errors.New("negative offset")}
	}

	mf.mfs.mu.Lock()
	defer mf.mfs.mu.Unlock()
	if end := int(off) + len(b); end > len(mf.node.data) {
		grown := make([]byte, end)
		copy(grown, mf.node.data)
		mf.node.data = grown
	}
	n := copy(mf.node.data[off:], b)
	mf.node.modTime = time.Now()
	return n, nil
}

func (mf *memFile) WriteString(s string) (int, error) {
	return mf.Write([]byte(s))
}

func (mf *memFile) Truncate(size int64) error {
	if err := mf.writable(); err != nil {
		return err
	}
	if size < 0 {
		return &fs.PathError{Op: "truncate", Path: mf.name, Err: fs.ErrInvalid}
	}

	mf.mfs.mu.Lock()
	defer mf.mfs.mu.Unlock()
	if size <= int64(len(mf.node.data)) {
		mf.node.data = mf.node.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, mf.node.data)
		mf.node.data = grown
	}
	mf.node.modTime = time.Now()
	return nil
}

func (mf *memFile) Seek(offset int64, whence int) (int64, error) {
	if mf.closed {
		return 0, fs.ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = mf.pos + offset
	case io.SeekEnd:
		mf.mfs.mu.RLock()
		pos = int64(len(mf.node.data)) + offset
		mf.mfs.mu.RUnlock()
	default:
		return 0, &fs.PathError{Op: "seek", Path: mf.name, Err: fs.ErrInvalid}
	}
	if pos < 0 {
		return 0, &fs.PathError{Op: "seek", Path: mf.name, Err: errors.New("negative position")}
	}
	mf.pos = pos
	return pos, nil
}

func (mf *memFile) Stat() (fs.FileInfo, error) {
	mf.mfs.mu.RLock()
	defer mf.mfs.mu.RUnlock()

	return &memFileInfo{
		name:    path.Base(mf.name),
		size:    int64(len(mf.node.data)),
		mode:    mf.node.mode,
		modTime: mf.node.modTime,
	}, nil
}

func (mf *memFile) Sync() error { return nil }

func (mf *memFile) Close() error {
	mf.closed = true
	return nil
}

func (mf *memFile) Readdir(int) ([]os.FileInfo, error) {
	return nil, &fs.PathError{Op: "readdir", Path: mf.name, Err: errors.New("not a directory")}
}

func (mf *memFile) Readdirnames(int) ([]string, error) {
	return nil, &fs.PathError{Op: "readdirnames", Path: mf.name, Err: errors.New("not a directory")}
}

func (mf *memFile) ReadDir(int) ([]fs.DirEntry, error) {
	return nil, &fs.PathError{Op: "readdir", Path: mf.name, Err: errors.New("not a directory")}
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }

// memDir is an open directory handle. Entries are listed once, on the
// first read, and handed out in order across calls.
type memDir struct {
	mfs     *memFS
	name    string
	entries []*memFileInfo
	loaded  bool
}

func (md *memDir) next(n int) ([]*memFileInfo, error) {
	if !md.loaded {
		md.mfs.mu.RLock()
		md.entries = md.mfs.children(md.name)
		md.mfs.mu.RUnlock()
		md.loaded = true
	}
	if n <= 0 {
		out := md.entries
		md.entries = nil
		return out, nil
	}
	if len(md.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(md.entries))
	out := md.entries[:n]
	md.entries = md.entries[n:]
	return out, nil
}

func (md *memDir) Readdir(n int) ([]os.FileInfo, error) {
	infos, err := md.next(n)
	out := make([]os.FileInfo, len(infos))
	for i, info := range infos {
		out[i] = info
	}
	return out, err
}

func (md *memDir) Readdirnames(n int) ([]string, error) {
	infos, err := md.next(n)
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.name
	}
	return out, err
}

func (md *memDir) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := md.next(n)
	out := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		out[i] = fs.FileInfoToDirEntry(info)
	}
	return out, err
}

func (md *memDir) Stat() (fs.FileInfo, error) {
	md.mfs.mu.RLock()
	defer md.mfs.mu.RUnlock()
	if info, ok := md.mfs.info(md.name); ok {
		return info, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: md.name, Err: fs.ErrNotExist}
}

func (md *memDir) Name() string                       { return md.name }
func (md *memDir) Close() error                       { return nil }
func (md *memDir) Sync() error                        { return nil }
func (md *memDir) Read([]byte) (int, error)           { return 0, md.isDir("read") }
func (md *memDir) ReadAt([]byte, int64) (int, error)  { return 0, md.isDir("read") }
func (md *memDir) Write([]byte) (int, error)          { return 0, md.isDir("write") }
func (md *memDir) WriteAt([]byte, int64) (int, error) { return 0, md.isDir("write") }
func (md *memDir) WriteString(string) (int, error)    { return 0, md.isDir("write") }
func (md *memDir) Truncate(int64) error               { return md.isDir("truncate") }
func (md *memDir) Seek(int64, int) (int64, error)     { return 0, md.isDir("seek") }

func (md *memDir) isDir(op string) error {
	return &fs.PathError{Op: op, Path: md.name, Err: errors.New("is a directory")}
}
