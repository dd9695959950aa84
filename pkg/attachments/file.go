package attachments

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// File is a just-selected file to attach to an outgoing message.
type File interface {
	Name() string
	Size() int64
	Type() string
	ModTime() time.Time
	Open() (io.ReadCloser, error)
}

type LocalFile struct {
	path     string
	info     os.FileInfo
	mimeType string
}

var _ File = (*LocalFile)(nil)

// FromPath stats path and sniffs its MIME type. The content is only read when
// the file is registered.
func FromPath(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not stat %s", path)
	}
	if info.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	mimeType, err := detectType(path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{path: path, info: info, mimeType: mimeType}, nil
}

func detectType(path string) (string, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrapf(err, "could not read %s", path)
	}
	return http.DetectContentType(head[:n]), nil
}

func (f *LocalFile) Name() string       { return f.info.Name() }
func (f *LocalFile) Size() int64        { return f.info.Size() }
func (f *LocalFile) Type() string       { return f.mimeType }
func (f *LocalFile) ModTime() time.Time { return f.info.ModTime() }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a File backed by a byte slice.
type MemoryFile struct {
	name     string
	mimeType string
	modTime  time.Time
	data     []byte
}

var _ File = (*MemoryFile)(nil)

func NewMemoryFile(name, mimeType string, modTime time.Time, data []byte) *MemoryFile {
	return &MemoryFile{name: name, mimeType: mimeType, modTime: modTime, data: data}
}

func (f *MemoryFile) Name() string       { return f.name }
func (f *MemoryFile) Size() int64        { return int64(len(f.data)) }
func (f *MemoryFile) Type() string       { return f.mimeType }
func (f *MemoryFile) ModTime() time.Time { return f.modTime }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
