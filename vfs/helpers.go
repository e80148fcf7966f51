package vfs

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
)

const MODEL_EXTENSION = ".mdl"

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file %q", f.Name())
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "Cannot get file %q reader", f.Name())
	}
	return r, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file %q", name)
	}
	if e.IsDirectory() {
		return nil, errors.Errorf("File %q is directory, not a file", name)
	}
	return e.(File), nil
}

// ReadFile loads whole file, models are small enough to keep in memory
func ReadFile(d Directory, name string) ([]byte, error) {
	f, err := DirectoryGetFile(d, name)
	if err != nil {
		return nil, err
	}
	r, err := OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(r)
}

// WriteFile creates or truncates file and fills it with data
func WriteFile(d Directory, name string, data []byte) error {
	f := NewDirectoryDriverFile(name)
	f.Init(d)
	if err := d.Add(f); err != nil {
		return err
	}
	e, err := DirectoryGetFile(d, name)
	if err != nil {
		return err
	}
	return e.Copy(bytes.NewReader(data))
}

func ListModels(d Directory) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), MODEL_EXTENSION) {
			continue
		}
		if e, err := d.GetElement(name); err == nil && !e.IsDirectory() {
			result = append(result, name)
		}
	}
	return result, nil
}
