package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService define o contrato para manipulação de JWTs.
type TokenService interface {
	GenerateToken(userID string, userRole string) (Issued, error)
	ValidateToken(tokenString string) (*CustomClaims, error)
}

// CustomClaims define as informações específicas que queremos armazenar no JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"rol"`
	jwt.RegisteredClaims
}

// Issued é um token recém-emitido com seus metadados.
type Issued struct {
	Token     string    `json:"access_token"`
	Type      string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"` // segundos
	ExpiresAt time.Time `json:"-"`
	ID        string    `json:"-"`
}

// Service implementa a interface TokenService
type Service struct {
	secretKey []byte
	expiry    time.Duration
	issuer    string
	now       func() time.Time
}

// NewService cria uma nova instância do serviço Token.
func NewService(secretKey string, expiry time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		issuer:    "siteadmin-api",
		now:       time.Now,
	}
}

// GenerateToken cria um novo JWT assinado (HS256) contendo o ID e o papel do usuário.
// Cada token recebe um jti próprio para permitir revogação individual.
func (s *Service) GenerateToken(userID string, userRole string) (Issued, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	jti := uuid.NewString()

	claims := CustomClaims{
		UserID: userID,
		Role:   userRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return Issued{}, fmt.Errorf("falha ao assinar o token: %w", err)
	}

	return Issued{
		Token:     tokenString,
		Type:      "bearer",
		ExpiresIn: int64(s.expiry / time.Second),
		ExpiresAt: expiresAt,
		ID:        jti,
	}, nil
}

// ValidateToken valida o token string e retorna as claims se for válido.
func (s *Service) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verifica se o método de assinatura é o esperado (HS256)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token não é válido")
	}

	return claims, nil
}

// IsExpired informa se err veio de um token expirado.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
