package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
)

// LocalBackend grava os assets sob um diretório raiz público (PUBLIC_DIR).
// O sistema de arquivos é limitado à raiz: caminhos que escapem dela falham no billy.
type LocalBackend struct {
	root string
	fs   billy.Filesystem
}

// NewLocalBackend cria o backend local; a raiz é criada se não existir.
func NewLocalBackend(root string) (*LocalBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalBackend{root: abs, fs: osfs.New(abs, osfs.WithBoundOS())}, nil
}

// Root devolve o diretório raiz absoluto.
func (b *LocalBackend) Root() string {
	return b.root
}

func (b *LocalBackend) EnsureDir(_ context.Context, dir string) error {
	return b.fs.MkdirAll(dir, 0o755)
}

func (b *LocalBackend) Exists(_ context.Context, p string) (bool, error) {
	_, err := b.fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Put grava em um arquivo temporário no mesmo diretório e renomeia ao final,
// para que leitores nunca vejam um arquivo pela metade.
func (b *LocalBackend) Put(_ context.Context, p string, content io.Reader, _ string) error {
	tmpName := path.Join(path.Dir(p), ".upload-"+uuid.NewString())
	tmp, err := b.fs.OpenFile(tmpName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		b.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmpName)
		return err
	}
	if err := b.fs.Rename(tmpName, p); err != nil {
		b.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (b *LocalBackend) Delete(_ context.Context, p string) error {
	err := b.fs.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (b *LocalBackend) Open(_ context.Context, p string) (io.ReadCloser, Info, error) {
	st, err := b.fs.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Info{}, ErrNotExist
	}
	if err != nil {
		return nil, Info{}, err
	}
	if st.IsDir() {
		return nil, Info{}, ErrNotExist
	}
	f, err := b.fs.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Info{}, ErrNotExist
	}
	if err != nil {
		return nil, Info{}, err
	}
	return f, Info{Size: st.Size(), ModTime: st.ModTime()}, nil
}
