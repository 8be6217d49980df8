// Package response reúne os auxiliares de escrita de respostas usados pelos handlers.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/logger"
)

// JSON escreve data como JSON com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Success escreve o envelope {status, message, data}.
func Success(w http.ResponseWriter, log logger.Logger, status int, message string, data interface{}) {
	JSON(w, log, status, domain.APIResponse{Status: "success", Message: message, Data: data})
}

// Error traduz err para status HTTP e escreve o corpo padronizado de erro.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	JSON(w, log, status, domain.ErrorResponse{
		Status:   "error",
		Code:     status,
		Category: category,
		Message:  message,
		Errors:   apperror.FieldsOf(err),
	})
}

// DecodeJSON decodifica o corpo da requisição em dst.
// Números em campos interface{} chegam como json.Number, sem perda de precisão.
// Corpo vazio ou malformado vira ValidationError.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.NewValidationError("El cuerpo de la petición es demasiado grande.")
		}
		return apperror.NewValidationError("Payload JSON inválido.")
	}
	return nil
}

// IsMultipart informa se a requisição foi enviada como multipart/form-data.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// ParseMultipart lê o formulário limitando o corpo a maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.NewValidationError("El cuerpo de la petición es demasiado grande.")
		}
		return apperror.NewValidationError("Formulario multipart inválido.")
	}
	return nil
}

// FormFile devolve o arquivo do campo informado, ou nil quando ausente.
// O chamador deve fechar o closer devolvido.
func FormFile(r *http.Request, field string) (*domain.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperror.NewFieldError(field, fmt.Sprintf("El campo %s debe ser un archivo.", field))
	}
	upload := &domain.Upload{Filename: header.Filename, Size: header.Size, Content: file}
	return upload, func() { file.Close() }, nil
}

// FormValue devolve o valor do campo e se ele foi enviado.
func FormValue(r *http.Request, field string) (string, bool) {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[field]; ok && len(vs) > 0 {
			return vs[0], true
		}
	}
	if vs, ok := r.PostForm[field]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

// Asset transmite o conteúdo de um asset aberto e fecha o corpo.
// Backends com leitor posicionável (disco local) ganham Range e If-Modified-Since.
func Asset(w http.ResponseWriter, r *http.Request, log logger.Logger, obj *assets.Object) {
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, obj.Name, obj.ModTime, rs)
		return
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		log.Warn("Falha ao enviar asset.", map[string]interface{}{"name": obj.Name, "error": err.Error()})
	}
}
