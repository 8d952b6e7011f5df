package registry

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// growableMmap keeps a single on-disk file entirely mapped into memory.
// Growing it means unmapping, extending the file with Truncate, and
// remapping — POSIX offers no in-place mmap extension.
type growableMmap struct {
	f      *os.File
	region mmap.MMap
}

func openGrowableMmap(path string) (*growableMmap, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errKind(KindIOError, "open %s: %v", path, err)
	}

	g := &growableMmap{f: f}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errKind(KindIOError, "stat %s: %v", path, err)
	}
	if info.Size() > 0 {
		if err := g.remap(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return g, nil
}

// remap drops the current mapping, if any, and maps the file at its
// current on-disk size.
func (g *growableMmap) remap() error {
	if g.region != nil {
		if err := g.region.Unmap(); err != nil {
			return errKind(KindIOError, "unmap %s: %v", g.f.Name(), err)
		}
		g.region = nil
	}
	info, err := g.f.Stat()
	if err != nil {
		return errKind(KindIOError, "stat %s: %v", g.f.Name(), err)
	}
	if info.Size() == 0 {
		return nil
	}
	region, err := mmap.Map(g.f, mmap.RDWR, 0)
	if err != nil {
		return errKind(KindIOError, "mmap %s: %v", g.f.Name(), err)
	}
	g.region = region
	return nil
}

func (g *growableMmap) size() int64 { return int64(len(g.region)) }

func (g *growableMmap) bytes() []byte { return g.region }

// grow extends the file to newSize bytes and remaps it.
func (g *growableMmap) grow(newSize int64) error {
	if err := g.f.Truncate(newSize); err != nil {
		return errKind(KindIOError, "truncate %s: %v", g.f.Name(), err)
	}
	return g.remap()
}

// shrink truncates the file down to newSize bytes and remaps it, used
// only by crash healing to cut a torn tail.
func (g *growableMmap) shrink(newSize int64) error {
	return g.grow(newSize)
}

func (g *growableMmap) close() error {
	if g.region != nil {
		if err := g.region.Unmap(); err != nil {
			return errKind(KindIOError, "unmap %s: %v", g.f.Name(), err)
		}
	}
	return g.f.Close()
}
