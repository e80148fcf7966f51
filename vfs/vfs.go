// Package vfs gives the inspection server access to a folder of models
package vfs

import (
	"io"
)

// Element is a named entry, stat is done lazily by the directory
type Element interface {
	Init(parent Directory)
	Name() string
	IsDirectory() bool
}

// File is opened before Reader, Copy replaces whole content
type File interface {
	Element
	Size() int64
	Open(readonly bool) error
	Close() error
	Reader() (*io.SectionReader, error)
	Copy(src io.Reader) error
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
	Add(e Element) error
	Remove(name string) error
}
