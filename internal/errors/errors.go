package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados da API.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
// Fields carrega as mensagens por campo (chave = nome do campo no payload).
type ValidationError struct {
	Msg    string
	Fields map[string][]string
}

func (e *ValidationError) Error() string    { return e.Msg }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *ValidationError) Unwrap() error    { return nil }

// Add registra uma mensagem para o campo informado.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// NewValidationError cria um novo erro de validação sem detalhes por campo.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// NewFieldError cria um erro de validação para um único campo.
func NewFieldError(field, msg string) *ValidationError {
	e := &ValidationError{Msg: "Error de validación"}
	e.Add(field, msg)
	return e
}

// BadRequestError representa uma requisição bem formada mas recusada pela regra (e.g., token inválido).
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string    { return e.Msg }
func (e *BadRequestError) Category() string { return "BAD_REQUEST" }
func (e *BadRequestError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *BadRequestError) Unwrap() error    { return nil }

// NewBadRequestError cria um erro 400.
func NewBadRequestError(msg string) *BadRequestError {
	return &BadRequestError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return e.Msg }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., email duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return e.Msg }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) *ConflictError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa credenciais ausentes, inválidas ou expiradas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return e.Msg }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um erro de autenticação.
func NewUnauthorizedError(msg string) *UnauthorizedError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem a permissão necessária.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return e.Msg }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um erro de autorização.
func NewForbiddenError(msg string) *ForbiddenError {
	return &ForbiddenError{Msg: msg}
}

// DecodeError indica que um valor bruto não pôde ser interpretado para o tipo declarado.
// Nunca chega ao cliente: quem decodifica decide o fallback.
type DecodeError struct {
	Tipo string
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("valor inválido para o tipo %s: %v", e.Tipo, e.Err)
}
func (e *DecodeError) Category() string { return "DECODE_ERROR" }
func (e *DecodeError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *DecodeError) Unwrap() error    { return e.Err }

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// StorageError representa falhas de escrita/remoção de arquivos no backend de assets.
type StorageError struct {
	Msg string
	Err error
}

func (e *StorageError) Error() string    { return fmt.Sprintf("Error de almacenamiento: %s", e.Msg) }
func (e *StorageError) Category() string { return "STORAGE_ERROR" }
func (e *StorageError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *StorageError) Unwrap() error    { return e.Err }

// NewStorageError cria um erro de armazenamento encapsulando a causa.
func NewStorageError(msg string, err error) *StorageError {
	return &StorageError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Error interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) *InternalError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) *InternalError {
	return NewInternalError(msg+" (DB)", err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP, categoria e mensagem.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ha ocurrido un error inesperado."
}

// FieldsOf retorna o mapa de erros por campo quando err é um ValidationError.
func FieldsOf(err error) map[string][]string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Fields
	}
	return nil
}

// IsNotFound informa se err (ou algum erro encapsulado) é um NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
