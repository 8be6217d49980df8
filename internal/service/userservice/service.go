package userservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/mailer"
	"siteadmin/internal/pkg/token"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100

	// ResetTokenTTL é a validade de um token de recuperação de senha.
	ResetTokenTTL = 24 * time.Hour
)

// MaxProfileImageSize é o tamanho máximo da imagem de perfil (2 MB).
const MaxProfileImageSize = 2 << 20

var profileImageRule = assets.ImageRule{
	Field:   "profile_image",
	MaxSize: MaxProfileImageSize,
	Types:   []string{"image/jpeg", "image/png"},
	Label:   "jpeg, png, jpg",
}

// TokenService é o contrato da camada de token (internal/pkg/token)
type TokenService interface {
	GenerateToken(userID string, userRole string) (token.Issued, error)
}

// Revoker invalida tokens antes da expiração (logout e refresh).
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Validator valida os DTOs de entrada.
type Validator interface {
	Struct(s interface{}) error
}

// ProfileImageStore é o subconjunto do assets.Manager usado para as imagens de perfil.
type ProfileImageStore interface {
	Replace(ctx context.Context, dir, previous, filename string, content io.Reader) (string, error)
	Fetch(ctx context.Context, p string) (*assets.Object, error)
	Delete(ctx context.Context, p string)
}

// ImagePath é o conteúdo de data na resposta do upload da imagem de perfil.
type ImagePath struct {
	ImagePath string `json:"image_path"`
}

// AuthResult é o usuário autenticado junto com o token emitido.
type AuthResult struct {
	User          domain.User  `json:"user"`
	Authorization token.Issued `json:"authorization"`
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo  domain.UserRepository
	TokenSvc  TokenService
	revoker   Revoker
	validator Validator
	logger    logger.Logger

	resets      domain.PasswordResetRepository
	mailer      mailer.Mailer
	frontendURL string
	images      ProfileImageStore
	now         func() time.Time
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, revoker Revoker, v Validator, log logger.Logger) *UserService {
	return &UserService{
		UserRepo:  repo,
		TokenSvc:  tokenSvc,
		revoker:   revoker,
		validator: v,
		logger:    log,
		now:       time.Now,
	}
}

// WithPasswordReset habilita a recuperação de senha por e-mail.
func (s *UserService) WithPasswordReset(resets domain.PasswordResetRepository, m mailer.Mailer, frontendURL string) *UserService {
	s.resets = resets
	s.mailer = m
	s.frontendURL = frontendURL
	return s
}

// WithProfileImages habilita o upload e a leitura das imagens de perfil.
func (s *UserService) WithProfileImages(store ProfileImageStore) *UserService {
	s.images = store
	return s
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireAdmin(caller domain.Caller) error {
	if !caller.Authenticated() {
		return apperror.NewUnauthorizedError("No autorizado")
	}
	if !caller.HasRole(domain.RoleAdmin) {
		return apperror.NewForbiddenError("Acceso denegado: solo administradores pueden gestionar usuarios")
	}
	return nil
}

// Register registra um novo usuário e já devolve um token de acesso.
// O auto-registro só aceita os papéis autor e cliente (padrão: cliente).
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (AuthResult, error) {
	registration.Email = normalizeEmail(registration.Email)
	if err := s.validator.Struct(registration); err != nil {
		return AuthResult{}, err
	}

	role := registration.Role
	if role == "" {
		role = domain.RoleClient
	}

	hashed, err := hashPassword(registration.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.UserRepo.Save(ctx, domain.User{
		Name:         strings.TrimSpace(registration.Name),
		Email:        registration.Email,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		return AuthResult{}, err
	}

	issued, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return AuthResult{}, apperror.NewInternalError("No se pudo generar el token de autenticación", err)
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID, "rol": user.Role})
	return AuthResult{User: user, Authorization: issued}, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		vErr := apperror.NewValidationError("Error de validación")
		if strings.TrimSpace(email) == "" {
			vErr.Add("email", "El campo email es obligatorio.")
		}
		if password == "" {
			vErr.Add("password", "El campo password es obligatorio.")
		}
		return AuthResult{}, vErr
	}

	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// NotFound vira 401 para não revelar quais e-mails existem.
		if apperror.IsNotFound(err) {
			return AuthResult{}, apperror.NewUnauthorizedError("Credenciales inválidas")
		}
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, apperror.NewUnauthorizedError("Credenciales inválidas")
	}

	issued, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return AuthResult{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login realizado.", map[string]interface{}{"user_id": user.ID})
	return AuthResult{User: user, Authorization: issued}, nil
}

// Profile devolve o usuário autenticado.
func (s *UserService) Profile(ctx context.Context, caller domain.Caller) (domain.User, error) {
	if !caller.Authenticated() {
		return domain.User{}, apperror.NewUnauthorizedError("No autorizado")
	}
	user, err := s.UserRepo.FindByID(ctx, caller.UserID)
	if apperror.IsNotFound(err) {
		// Token válido de um usuário que já foi removido.
		return domain.User{}, apperror.NewUnauthorizedError("Usuario no autenticado")
	}
	return user, err
}

// UpdateProfile altera nome e e-mail do próprio usuário.
func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Caller, input domain.ProfileInput) (domain.User, error) {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return domain.User{}, err
	}
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return domain.User{}, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Email = input.Email
	return s.UserRepo.Update(ctx, user)
}

// ChangePassword troca a senha do usuário autenticado após conferir a senha atual.
func (s *UserService) ChangePassword(ctx context.Context, caller domain.Caller, input domain.PasswordChange) error {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return err
	}
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperror.NewFieldError("current_password", "La contraseña actual no es correcta")
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if _, err := s.UserRepo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Senha alterada.", map[string]interface{}{"user_id": user.ID})
	return nil
}

// Refresh emite um novo token com o papel atual do usuário e revoga o token usado.
func (s *UserService) Refresh(ctx context.Context, caller domain.Caller) (token.Issued, error) {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return token.Issued{}, err
	}

	issued, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return token.Issued{}, apperror.NewInternalError("No se pudo refrescar el token", err)
	}
	s.revoke(ctx, caller)
	return issued, nil
}

// Logout revoga o token usado na requisição até a sua expiração.
func (s *UserService) Logout(ctx context.Context, caller domain.Caller) error {
	if !caller.Authenticated() {
		return apperror.NewUnauthorizedError("No autorizado")
	}
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return apperror.NewInternalError("No se pudo cerrar la sesión", err)
	}
	return nil
}

func (s *UserService) revoke(ctx context.Context, caller domain.Caller) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		s.logger.Warn("Falha ao revogar token anterior.", map[string]interface{}{"user_id": caller.UserID, "error": err.Error()})
	}
}

// CheckAdminAccess confirma, pelo papel atual no banco, que o usuário pode usar o painel.
func (s *UserService) CheckAdminAccess(ctx context.Context, caller domain.Caller) error {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return err
	}
	for _, r := range domain.PanelRoles {
		if user.Role == r {
			return nil
		}
	}
	return apperror.NewForbiddenError("Acceso denegado: No tienes permisos para acceder al panel de administración")
}

// List devolve uma página de usuários e os metadados de paginação.
func (s *UserService) List(ctx context.Context, caller domain.Caller, filter domain.UserFilter) ([]domain.User, domain.Pagination, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, domain.Pagination{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}

	users, total, err := s.UserRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return users, domain.NewPagination(total, filter.Page, filter.PerPage, len(users)), nil
}

// Create cria um usuário com qualquer papel (somente administradores).
func (s *UserService) Create(ctx context.Context, caller domain.Caller, input domain.UserInput) (domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.User{}, err
	}
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return domain.User{}, err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}
	return s.UserRepo.Save(ctx, domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hashed,
		Role:         input.Role,
	})
}

// Get devolve um usuário pelo id.
func (s *UserService) Get(ctx context.Context, caller domain.Caller, id string) (domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.User{}, err
	}
	return s.UserRepo.FindByID(ctx, id)
}

// Update aplica uma atualização parcial; campos nil não são alterados.
func (s *UserService) Update(ctx context.Context, caller domain.Caller, id string, patch domain.UserPatch) (domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.User{}, err
	}
	if patch.Email != nil {
		e := normalizeEmail(*patch.Email)
		patch.Email = &e
	}
	if err := s.validator.Struct(patch); err != nil {
		return domain.User{}, err
	}

	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		hashed, err := hashPassword(*patch.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hashed
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	return s.UserRepo.Update(ctx, user)
}

// Delete remove um usuário.
func (s *UserService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.UserRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.images != nil && user.ProfileImage != nil {
		s.images.Delete(ctx, *user.ProfileImage)
	}
	return nil
}

// ForgotPassword gera um token de recuperação (válido por ResetTokenTTL) e envia o link por e-mail.
// Só o hash bcrypt do token é gravado; um pedido novo substitui o anterior.
func (s *UserService) ForgotPassword(ctx context.Context, input domain.ForgotPasswordInput) error {
	if s.resets == nil || s.mailer == nil {
		return apperror.NewInternalError("La recuperación de contraseña no está configurada", nil)
	}
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if _, err := s.findResetUser(ctx, input.Email); err != nil {
		return err
	}

	plain, err := newResetToken()
	if err != nil {
		return apperror.NewInternalError("No se pudo generar el token de recuperación", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("No se pudo generar el token de recuperación", err)
	}
	reset := domain.PasswordReset{Email: input.Email, TokenHash: string(hashed), CreatedAt: s.now().UTC()}
	if err := s.resets.Save(ctx, reset); err != nil {
		return err
	}

	msg, err := mailer.ResetPasswordMessage(input.Email, s.frontendURL, plain, ResetTokenTTL)
	if err != nil {
		return apperror.NewInternalError("No se pudo enviar el correo de recuperación", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperror.NewInternalError("No se pudo enviar el correo de recuperación", err)
	}

	s.logger.Info("E-mail de recuperação enviado.", map[string]interface{}{"email": input.Email})
	return nil
}

// ValidateResetToken confere se o token do e-mail existe e não expirou.
func (s *UserService) ValidateResetToken(ctx context.Context, input domain.ResetTokenInput) error {
	if s.resets == nil {
		return apperror.NewInternalError("La recuperación de contraseña no está configurada", nil)
	}
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if _, err := s.findResetUser(ctx, input.Email); err != nil {
		return err
	}
	return s.checkResetToken(ctx, input.Email, input.Token)
}

// ResetPassword troca a senha usando um token válido e consome o token.
func (s *UserService) ResetPassword(ctx context.Context, input domain.ResetPasswordInput) error {
	if s.resets == nil {
		return apperror.NewInternalError("La recuperación de contraseña no está configurada", nil)
	}
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	user, err := s.findResetUser(ctx, input.Email)
	if err != nil {
		return err
	}
	if err := s.checkResetToken(ctx, input.Email, input.Token); err != nil {
		return err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if _, err := s.UserRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := s.resets.Delete(ctx, input.Email); err != nil {
		s.logger.Warn("Falha ao remover token de recuperação usado.", map[string]interface{}{"email": input.Email, "error": err.Error()})
	}

	s.logger.Info("Senha redefinida por token.", map[string]interface{}{"user_id": user.ID})
	return nil
}

func (s *UserService) findResetUser(ctx context.Context, email string) (domain.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if apperror.IsNotFound(err) {
		return domain.User{}, apperror.NewFieldError("email", "El email seleccionado es inválido.")
	}
	return user, err
}

// checkResetToken devolve BadRequestError para token ausente, divergente ou expirado.
// Um token expirado é removido.
func (s *UserService) checkResetToken(ctx context.Context, email, plain string) error {
	reset, err := s.resets.Find(ctx, email)
	if apperror.IsNotFound(err) {
		return apperror.NewBadRequestError("Token de recuperación inválido")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(reset.TokenHash), []byte(plain)) != nil {
		return apperror.NewBadRequestError("Token de recuperación inválido")
	}
	if s.now().Sub(reset.CreatedAt) > ResetTokenTTL {
		if err := s.resets.Delete(ctx, email); err != nil {
			s.logger.Warn("Falha ao remover token de recuperação expirado.", map[string]interface{}{"email": email, "error": err.Error()})
		}
		return apperror.NewBadRequestError("El token de recuperación ha expirado")
	}
	return nil
}

// newResetToken gera 32 bytes aleatórios em hexadecimal (64 caracteres).
func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// UploadProfileImage grava a imagem de perfil do usuário autenticado, substituindo a anterior.
func (s *UserService) UploadProfileImage(ctx context.Context, caller domain.Caller, upload *domain.Upload) (ImagePath, error) {
	if s.images == nil {
		return ImagePath{}, apperror.NewInternalError("Las imágenes de perfil no están configuradas", nil)
	}
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return ImagePath{}, err
	}
	content, err := profileImageRule.Check(upload)
	if err != nil {
		return ImagePath{}, err
	}

	previous := ""
	if user.ProfileImage != nil {
		previous = *user.ProfileImage
	}
	p, err := s.images.Replace(ctx, assets.ProfileDir, previous, upload.Filename, content)
	if err != nil {
		return ImagePath{}, err
	}
	if _, err := s.UserRepo.UpdateProfileImage(ctx, user.ID, &p); err != nil {
		s.images.Delete(ctx, p)
		return ImagePath{}, err
	}

	s.logger.Info("Imagem de perfil atualizada.", map[string]interface{}{"user_id": user.ID, "path": p})
	return ImagePath{ImagePath: p}, nil
}

// ProfileImage abre a imagem de perfil de um usuário. Rota pública.
func (s *UserService) ProfileImage(ctx context.Context, userID string) (*assets.Object, error) {
	if s.images == nil {
		return nil, apperror.NewNotFoundError("Imagen no encontrada")
	}
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ProfileImage == nil || *user.ProfileImage == "" {
		return nil, apperror.NewNotFoundError("Imagen no encontrada")
	}
	obj, err := s.images.Fetch(ctx, *user.ProfileImage)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewNotFoundError("Imagen no encontrada")
	}
	return obj, err
}

// EnsureAdmin garante, no boot, que existe uma conta administradora com o e-mail informado.
// Uma conta existente é promovida a administrador; a senha dela não é alterada.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		if user.Role == domain.RoleAdmin {
			return nil
		}
		user.Role = domain.RoleAdmin
		if _, err := s.UserRepo.Update(ctx, user); err != nil {
			return err
		}
		s.logger.Info("Usuário existente promovido a administrador.", map[string]interface{}{"email": email})
		return nil
	}
	var nf *apperror.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.UserRepo.Save(ctx, domain.User{Name: name, Email: email, PasswordHash: hashed, Role: domain.RoleAdmin}); err != nil {
		return err
	}
	s.logger.Info("Conta administradora criada.", map[string]interface{}{"email": email})
	return nil
}
