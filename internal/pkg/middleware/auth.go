package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/token"
)

// ContextKey é o tipo das chaves que o middleware grava no contexto.
// Context Keys devem ser não-exportadas ou de um tipo único para evitar colisões.
type ContextKey int

const (
	CallerKey ContextKey = iota
	RequestIDKey
)

// TokenValidator define o contrato de validação necessário para o middleware.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// RevocationChecker informa se um token (jti) foi invalidado por logout/refresh.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewAuthMiddleware cria um middleware que valida o JWT do header Authorization
// e anexa o domain.Caller ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenValidator, revoked RevocationChecker, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Token no encontrado"))
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				msg := "Token inválido"
				if token.IsExpired(err) {
					msg = "Token expirado"
				}
				writeError(w, apperror.NewUnauthorizedError(msg))
				return
			}

			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					// Redis fora do ar não derruba a autenticação: o token segue válido pela assinatura.
					log.Warn("Falha ao consultar lista de revogação.", map[string]interface{}{"error": err.Error()})
				} else if isRevoked {
					writeError(w, apperror.NewUnauthorizedError("Token inválido"))
					return
				}
			}

			caller := domain.Caller{
				UserID:  claims.UserID,
				Role:    domain.UserRole(claims.Role),
				TokenID: claims.ID,
			}
			if claims.ExpiresAt != nil {
				caller.ExpiresAt = claims.ExpiresAt.Time
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		}
	}
}

// WithCaller devolve um contexto contendo o Caller.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFromContext extrai o Caller anexado pelo middleware de autenticação.
// Em rotas públicas devolve um Caller vazio (não autenticado).
func CallerFromContext(ctx context.Context) domain.Caller {
	caller, _ := ctx.Value(CallerKey).(domain.Caller)
	return caller
}

// PermissionMiddleware restringe a rota aos papéis informados. Deve ser aplicado após o de autenticação.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if !caller.Authenticated() {
				writeError(w, apperror.NewUnauthorizedError("No autorizado"))
				return
			}

			if !caller.HasRole(requiredRoles...) {
				writeError(w, apperror.NewForbiddenError("Acceso denegado: No tienes permisos para realizar esta acción"))
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}
	tokenString := strings.TrimSpace(authHeader[len(prefix):])
	return tokenString, tokenString != ""
}

// writeError escreve o erro no mesmo formato usado pelos handlers da API.
func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Status:   "error",
		Code:     status,
		Category: category,
		Message:  message,
	})
}
