// Package classloader implements runtime.Loader against a directory of
// compiled .class files on disk, resolving a classpath entry with no
// parent/bootstrap delegation, since this core has no standard library to
// delegate to.
package classloader

import (
	"path/filepath"

	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/diagnostics"
)

// Directory loads classes named "a/b/C" from "<Root>/a/b/C.class", caching
// each parsed classfile.ClassFile so a class referenced from multiple call
// sites is only read and parsed once.
type Directory struct {
	Root  string
	cache map[string]*classfile.ClassFile
}

func NewDirectory(root string) *Directory {
	return &Directory{Root: root, cache: make(map[string]*classfile.ClassFile)}
}

func (d *Directory) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := d.cache[name]; ok {
		return cf, nil
	}
	path := filepath.Join(d.Root, filepath.FromSlash(name)+".class")
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, diagnostics.Wrap(err, diagnostics.ResolutionError, "loading %s from %s", name, path)
	}
	d.cache[name] = cf
	return cf, nil
}
