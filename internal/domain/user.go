package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"rol"`
	ProfileImage *string   `json:"profile_image"` // caminho relativo do asset, nil se não houver
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin  UserRole = "administrador"
	RoleAuthor UserRole = "autor"
	RoleClient UserRole = "cliente"
)

// Valid informa se o papel é um dos papéis conhecidos.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleClient:
		return true
	}
	return false
}

// PanelRoles são os papéis com acesso ao painel administrativo.
var PanelRoles = []UserRole{RoleAdmin, RoleAuthor}

// Caller é a identidade autenticada de quem faz a requisição.
// É extraída do JWT pelo middleware e passada explicitamente aos serviços.
type Caller struct {
	UserID    string
	Role      UserRole
	TokenID   string
	ExpiresAt time.Time
}

// Authenticated informa se o Caller veio de um token válido.
func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// HasRole informa se o Caller possui algum dos papéis informados.
func (c Caller) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// CanManageSite informa se o Caller pode alterar configurações e banners.
func (c Caller) CanManageSite() bool {
	return c.Authenticated() && c.HasRole(PanelRoles...)
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"rol" validate:"omitempty,oneof=autor cliente"`
}

// UserInput é o payload de criação de usuário pelo administrador.
type UserInput struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"rol" validate:"required,oneof=autor administrador cliente"`
}

// UserPatch é o payload de atualização parcial de usuário.
type UserPatch struct {
	Name     *string   `json:"name" validate:"omitnil,min=1,max=255"`
	Email    *string   `json:"email" validate:"omitnil,email,max=255"`
	Password *string   `json:"password" validate:"omitnil,min=8"`
	Role     *UserRole `json:"rol" validate:"omitnil,oneof=autor administrador cliente"`
}

// UserFilter define os parâmetros de busca e paginação da listagem de usuários.
type UserFilter struct {
	Search  string
	Role    UserRole
	Page    int
	PerPage int
}

// Pagination descreve a página retornada de uma listagem.
type Pagination struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// NewPagination calcula os metadados de paginação.
func NewPagination(total, page, perPage, count int) Pagination {
	p := Pagination{Total: total, PerPage: perPage, CurrentPage: page, LastPage: 1}
	if perPage > 0 && total > 0 {
		p.LastPage = (total + perPage - 1) / perPage
	}
	if count > 0 {
		p.From = (page-1)*perPage + 1
		p.To = p.From + count - 1
	}
	return p
}

// ProfileInput é o payload de atualização do próprio perfil. O papel não pode ser alterado por aqui.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// PasswordChange é o payload de troca de senha do usuário autenticado.
type PasswordChange struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ForgotPasswordInput é o payload do pedido de recuperação de senha.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetTokenInput é o payload de validação de um token de recuperação.
type ResetTokenInput struct {
	Token string `json:"token" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput é o payload de redefinição de senha com token.
type ResetPasswordInput struct {
	Token                string `json:"token" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// PasswordReset é um pedido de recuperação pendente. TokenHash é o bcrypt do token enviado por e-mail.
type PasswordReset struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
}

// PasswordResetRepository persiste os pedidos de recuperação de senha (um por e-mail).
type PasswordResetRepository interface {
	// Save substitui qualquer pedido anterior do mesmo e-mail.
	Save(ctx context.Context, reset PasswordReset) error
	// Find devolve NotFoundError quando não há pedido para o e-mail.
	Find(ctx context.Context, email string) (PasswordReset, error)
	Delete(ctx context.Context, email string) error
}

// UserRepository é a interface que a camada de Repositório deve implementar para usuários.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	// List devolve a página pedida e o total de registros que satisfazem o filtro.
	List(ctx context.Context, filter UserFilter) ([]User, int, error)
	Update(ctx context.Context, user User) (User, error)
	// UpdateProfileImage grava o caminho da imagem de perfil (nil remove).
	UpdateProfileImage(ctx context.Context, id string, path *string) (User, error)
	Delete(ctx context.Context, id string) error
}
