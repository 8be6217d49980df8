// Package assets persiste arquivos enviados (imagens de configurações e banners)
// em um backend de armazenamento e devolve o caminho relativo gravado no banco.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

// ErrNotExist é devolvido pelos backends quando o objeto não existe.
var ErrNotExist = errors.New("assets: objeto não existe")

// Backend é o armazenamento físico: sistema de arquivos local ou bucket S3.
// Caminhos são sempre relativos e separados por "/".
type Backend interface {
	// EnsureDir cria o diretório (recursivamente) quando o backend possui diretórios.
	EnsureDir(ctx context.Context, dir string) error
	Exists(ctx context.Context, p string) (bool, error)
	Put(ctx context.Context, p string, content io.Reader, contentType string) error
	Delete(ctx context.Context, p string) error
	// Open devolve ErrNotExist quando p não existe.
	Open(ctx context.Context, p string) (io.ReadCloser, Info, error)
}

// Info descreve um objeto armazenado.
type Info struct {
	Size    int64
	ModTime time.Time
}

// Object é um asset aberto para leitura. O chamador deve fechar Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
	Name        string
}

// Manager implementa store/replace/fetch sobre um Backend.
type Manager struct {
	backend Backend
	logger  logger.Logger
	now     func() time.Time
}

// NewManager cria o gerenciador de assets.
func NewManager(backend Backend, log logger.Logger) *Manager {
	return &Manager{backend: backend, logger: log, now: time.Now}
}

// ConfigDir é o diretório das imagens de configurações de um grupo.
func ConfigDir(grupo string) string {
	return path.Join("assets/configuraciones", sanitizeSegment(grupo))
}

// BannerDir é o diretório das imagens de banners.
const BannerDir = "assets/banners"

// Store grava content em dir como "<epochSeconds>_<filename>" e devolve o caminho relativo.
func (m *Manager) Store(ctx context.Context, dir, filename string, content io.Reader) (string, error) {
	return m.store(ctx, dir, filename, content, "")
}

// Replace remove o arquivo anterior (melhor esforço) e grava o novo.
// O novo caminho nunca coincide com previous, mesmo com nome original idêntico no mesmo segundo.
//
// A remoção e a gravação não são atômicas: duas substituições simultâneas da mesma
// entrada podem deixar um arquivo órfão. Comportamento aceito.
func (m *Manager) Replace(ctx context.Context, dir, previous, filename string, content io.Reader) (string, error) {
	if previous != "" {
		m.removeBestEffort(ctx, previous)
	}
	return m.store(ctx, dir, filename, content, previous)
}

// Delete remove um asset (melhor esforço), usado quando o dono é excluído.
func (m *Manager) Delete(ctx context.Context, p string) {
	if p != "" {
		m.removeBestEffort(ctx, p)
	}
}

// Fetch abre o asset para leitura; NotFoundError se não existir.
func (m *Manager) Fetch(ctx context.Context, p string) (*Object, error) {
	clean, ok := cleanRelative(p)
	if !ok {
		return nil, apperror.NewNotFoundError("Archivo de imagen no encontrado")
	}

	body, info, err := m.backend.Open(ctx, clean)
	if errors.Is(err, ErrNotExist) {
		return nil, apperror.NewNotFoundError("Archivo de imagen no encontrado")
	}
	if err != nil {
		return nil, apperror.NewStorageError("no se pudo leer el archivo", err)
	}

	contentType := mime.TypeByExtension(path.Ext(clean))
	if contentType == "" {
		// Sem extensão conhecida: detecta pelo conteúdo e devolve um leitor que
		// reinclui os bytes já lidos.
		mt, rd, derr := sniff(body)
		if derr == nil {
			contentType = mt
			body = readCloser{Reader: rd, Closer: body}
		}
	}

	return &Object{
		Body:        body,
		ContentType: contentType,
		Size:        info.Size,
		ModTime:     info.ModTime,
		Name:        path.Base(clean),
	}, nil
}

func (m *Manager) store(ctx context.Context, dir, filename string, content io.Reader, avoid string) (string, error) {
	dir, ok := cleanRelative(dir)
	if !ok {
		return "", apperror.NewStorageError(fmt.Sprintf("diretório inválido: %q", dir), nil)
	}
	name := sanitizeSegment(filename)
	if name == "" {
		name = "archivo"
	}

	if err := m.backend.EnsureDir(ctx, dir); err != nil {
		return "", apperror.NewStorageError("no se pudo crear el directorio", err)
	}

	avoid, _ = cleanRelative(avoid)
	epoch := m.now().Unix()
	target := path.Join(dir, fmt.Sprintf("%d_%s", epoch, name))
	for {
		if target != avoid {
			exists, err := m.backend.Exists(ctx, target)
			if err != nil {
				return "", apperror.NewStorageError("no se pudo verificar el archivo", err)
			}
			if !exists {
				break
			}
		}
		epoch++
		target = path.Join(dir, fmt.Sprintf("%d_%s", epoch, name))
	}

	mt, rd, err := sniff(content)
	if err != nil {
		return "", apperror.NewStorageError("no se pudo leer el archivo recibido", err)
	}
	if err := m.backend.Put(ctx, target, rd, mt); err != nil {
		return "", apperror.NewStorageError("no se pudo guardar el archivo", err)
	}

	m.logger.Info("Asset gravado.", map[string]interface{}{"path": target})
	return target, nil
}

func (m *Manager) removeBestEffort(ctx context.Context, p string) {
	clean, ok := cleanRelative(p)
	if !ok {
		return
	}
	exists, err := m.backend.Exists(ctx, clean)
	if err != nil || !exists {
		return
	}
	if err := m.backend.Delete(ctx, clean); err != nil {
		m.logger.Warn("Falha ao remover asset anterior (ignorada).", map[string]interface{}{"path": clean, "error": err.Error()})
		return
	}
	m.logger.Debug("Asset anterior removido.", map[string]interface{}{"path": clean})
}

// DetectContentType identifica o tipo MIME pelo conteúdo, preservando o leitor.
func DetectContentType(r io.Reader) (string, io.Reader, error) {
	return sniff(r)
}

func sniff(r io.Reader) (string, io.Reader, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	header = header[:n]
	mt := mimetype.Detect(header)
	return mt.String(), io.MultiReader(bytes.NewReader(header), r), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// cleanRelative normaliza p e rejeita caminhos absolutos ou que escapem da raiz.
func cleanRelative(p string) (string, bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", false
	}
	return clean, true
}

// sanitizeSegment reduz um nome a um único segmento de caminho seguro.
func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base("/" + s)
	if s == "/" || s == "." || s == ".." {
		return ""
	}
	return strings.TrimSpace(s)
}
