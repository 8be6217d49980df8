package assets

import (
	"fmt"
	"io"
	"strings"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
)

// ProfileDir é o diretório das imagens de perfil dos usuários.
const ProfileDir = "assets/images/profiles"

// ImageRule descreve o que um campo de imagem aceita.
// Types são tipos MIME detectados pelo conteúdo; Label é a lista mostrada ao cliente.
type ImageRule struct {
	Field   string
	MaxSize int64
	Types   []string
	Label   string
}

// Check verifica presença, tamanho e tipo real da imagem.
// Devolve um leitor que ainda contém os bytes inspecionados.
func (r ImageRule) Check(upload *domain.Upload) (io.Reader, error) {
	if upload == nil || upload.Content == nil {
		return nil, apperror.NewFieldError(r.Field, fmt.Sprintf("El campo %s es obligatorio.", r.Field))
	}
	if r.MaxSize > 0 && upload.Size > r.MaxSize {
		return nil, apperror.NewFieldError(r.Field, fmt.Sprintf("El campo %s no debe ser mayor que %d kilobytes.", r.Field, r.MaxSize/1024))
	}

	contentType, content, err := DetectContentType(upload.Content)
	if err != nil {
		return nil, apperror.NewInternalError("no se pudo leer la imagen", err)
	}
	for _, t := range r.Types {
		if strings.EqualFold(t, contentType) {
			return content, nil
		}
	}
	return nil, apperror.NewFieldError(r.Field, fmt.Sprintf("El campo %s debe ser un archivo de tipo: %s.", r.Field, r.Label))
}
