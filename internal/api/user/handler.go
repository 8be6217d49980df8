package user

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"siteadmin/internal/api/response"
	"siteadmin/internal/domain"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
	"siteadmin/internal/pkg/token"
	"siteadmin/internal/service/userservice"
)

// UserService define o contrato para autenticação e administração de usuários.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (userservice.AuthResult, error)
	Login(ctx context.Context, email string, password string) (userservice.AuthResult, error)
	Profile(ctx context.Context, caller domain.Caller) (domain.User, error)
	UpdateProfile(ctx context.Context, caller domain.Caller, input domain.ProfileInput) (domain.User, error)
	ChangePassword(ctx context.Context, caller domain.Caller, input domain.PasswordChange) error
	Refresh(ctx context.Context, caller domain.Caller) (token.Issued, error)
	Logout(ctx context.Context, caller domain.Caller) error
	CheckAdminAccess(ctx context.Context, caller domain.Caller) error

	List(ctx context.Context, caller domain.Caller, filter domain.UserFilter) ([]domain.User, domain.Pagination, error)
	Create(ctx context.Context, caller domain.Caller, input domain.UserInput) (domain.User, error)
	Get(ctx context.Context, caller domain.Caller, id string) (domain.User, error)
	Update(ctx context.Context, caller domain.Caller, id string, patch domain.UserPatch) (domain.User, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error

	ForgotPassword(ctx context.Context, input domain.ForgotPasswordInput) error
	ValidateResetToken(ctx context.Context, input domain.ResetTokenInput) error
	ResetPassword(ctx context.Context, input domain.ResetPasswordInput) error
	UploadProfileImage(ctx context.Context, caller domain.Caller, upload *domain.Upload) (userservice.ImagePath, error)
	ProfileImage(ctx context.Context, userID string) (*assets.Object, error)
}

// maxProfileImageBody é o limite do corpo multipart da imagem de perfil (2 MB mais os campos).
const maxProfileImageBody = userservice.MaxProfileImageSize + 1<<20

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshData é o conteúdo de data na resposta do refresh.
type RefreshData struct {
	Authorization token.Issued `json:"authorization"`
}

// AccessData é o conteúdo de data na resposta de check-admin-access.
type AccessData struct {
	HasAccess bool `json:"hasAccess"`
}

// ListResponse é a resposta paginada de GET /users.
type ListResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Data       []domain.User     `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse escreve o envelope {status, message, data} ou o erro padronizado.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, message string, data interface{}, err error, successStatus int) {
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, successStatus, message, data)
}

// RegisterUserHandler lida com a requisição POST /auth/register.
// @Summary Registra um novo usuário
// @Description Cria o usuário (papel autor ou cliente) e devolve um token de acesso.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.APIResponse "Usuário criado com sucesso"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 422 {object} domain.ErrorResponse "Dados inválidos"
// @Router /auth/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.DecodeJSON(r, &reg); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusCreated)
		return
	}

	result, err := h.Service.Register(r.Context(), reg)
	h.handleServiceResponse(w, r, "Usuario registrado exitosamente", result, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /auth/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} domain.APIResponse "Token JWT emitido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /auth/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq LoginRequest
	if err := response.DecodeJSON(r, &loginReq); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}

	result, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	h.handleServiceResponse(w, r, "Inicio de sesión exitoso", result, err, http.StatusOK)
}

// ProfileHandler lida com GET /auth/profile.
// @Summary Perfil do usuário autenticado
// @Tags auth
// @Produce json
// @Success 200 {object} domain.APIResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/profile [get]
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	u, err := h.Service.Profile(r.Context(), caller)
	h.handleServiceResponse(w, r, "Perfil de usuario", u, err, http.StatusOK)
}

// UpdateProfileHandler lida com PUT /auth/profile.
// @Summary Atualiza nome e e-mail do usuário autenticado
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body domain.ProfileInput true "Nome e e-mail"
// @Success 200 {object} domain.APIResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/profile [put]
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var input domain.ProfileInput
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), caller, input)
	h.handleServiceResponse(w, r, "Perfil actualizado correctamente", u, err, http.StatusOK)
}

// ChangePasswordHandler lida com PUT /auth/change-password.
// @Summary Troca a senha do usuário autenticado
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body domain.PasswordChange true "Senha atual e nova senha"
// @Success 200 {object} domain.APIResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/change-password [put]
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var input domain.PasswordChange
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	err := h.Service.ChangePassword(r.Context(), caller, input)
	h.handleServiceResponse(w, r, "Contraseña actualizada correctamente", nil, err, http.StatusOK)
}

// RefreshHandler lida com POST /auth/refresh.
// @Summary Emite um novo token e revoga o atual
// @Tags auth
// @Produce json
// @Success 200 {object} domain.APIResponse
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	issued, err := h.Service.Refresh(r.Context(), caller)
	h.handleServiceResponse(w, r, "Token refrescado exitosamente", RefreshData{Authorization: issued}, err, http.StatusOK)
}

// LogoutHandler lida com POST /auth/logout.
// @Summary Encerra a sessão revogando o token atual
// @Tags auth
// @Produce json
// @Success 200 {object} domain.APIResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	err := h.Service.Logout(r.Context(), caller)
	h.handleServiceResponse(w, r, "Sesión cerrada exitosamente", nil, err, http.StatusOK)
}

// CheckAdminAccessHandler lida com GET /auth/check-admin-access.
// @Summary Verifica se o usuário pode acessar o painel
// @Tags auth
// @Produce json
// @Success 200 {object} domain.APIResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/check-admin-access [get]
func (h *Handler) CheckAdminAccessHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	err := h.Service.CheckAdminAccess(r.Context(), caller)
	h.handleServiceResponse(w, r, "Usuario tiene acceso al panel de administración", AccessData{HasAccess: true}, err, http.StatusOK)
}

// ListUsersHandler lida com GET /users.
// @Summary Lista usuários com busca e paginação
// @Tags users
// @Produce json
// @Param search query string false "Busca por nome ou e-mail"
// @Param rol query string false "Filtra por papel"
// @Param page query int false "Página"
// @Param per_page query int false "Itens por página (padrão 10)"
// @Success 200 {object} ListResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	q := r.URL.Query()
	filter := domain.UserFilter{
		Search:  strings.TrimSpace(q.Get("search")),
		Role:    domain.UserRole(strings.TrimSpace(q.Get("rol"))),
		Page:    atoiOrZero(q.Get("page")),
		PerPage: atoiOrZero(q.Get("per_page")),
	}

	users, page, err := h.Service.List(r.Context(), caller, filter)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	response.JSON(w, h.Logger, http.StatusOK, ListResponse{
		Status:     "success",
		Message:    "Lista de usuarios obtenida correctamente",
		Data:       users,
		Pagination: page,
	})
}

// CreateUserHandler lida com POST /users.
// @Summary Cria um usuário com qualquer papel
// @Tags users
// @Accept json
// @Produce json
// @Param user body domain.UserInput true "Dados do usuário"
// @Success 201 {object} domain.APIResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var input domain.UserInput
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusCreated)
		return
	}
	u, err := h.Service.Create(r.Context(), caller, input)
	h.handleServiceResponse(w, r, "Usuario creado correctamente", u, err, http.StatusCreated)
}

// GetUserHandler lida com GET /users/{id}.
// @Summary Busca um usuário
// @Tags users
// @Produce json
// @Param id path string true "ID do usuário"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	u, err := h.Service.Get(r.Context(), caller, r.PathValue("id"))
	h.handleServiceResponse(w, r, "Usuario obtenido correctamente", u, err, http.StatusOK)
}

// UpdateUserHandler lida com PUT /users/{id}.
// @Summary Atualiza um usuário (parcial)
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do usuário"
// @Param user body domain.UserPatch true "Campos a alterar"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var patch domain.UserPatch
	if err := response.DecodeJSON(r, &patch); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	u, err := h.Service.Update(r.Context(), caller, r.PathValue("id"), patch)
	h.handleServiceResponse(w, r, "Usuario actualizado correctamente", u, err, http.StatusOK)
}

// DeleteUserHandler lida com DELETE /users/{id}.
// @Summary Remove um usuário
// @Tags users
// @Produce json
// @Param id path string true "ID do usuário"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	err := h.Service.Delete(r.Context(), caller, r.PathValue("id"))
	h.handleServiceResponse(w, r, "Usuario eliminado correctamente", nil, err, http.StatusOK)
}

// ForgotPasswordHandler lida com POST /auth/forgot-password.
// @Summary Envia o e-mail de recuperação de senha
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body domain.ForgotPasswordInput true "E-mail da conta"
// @Success 200 {object} domain.APIResponse
// @Failure 422 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse "Falha no envio do e-mail"
// @Router /auth/forgot-password [post]
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.ForgotPasswordInput
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	err := h.Service.ForgotPassword(r.Context(), input)
	h.handleServiceResponse(w, r, "Se ha enviado un correo de recuperación de contraseña", nil, err, http.StatusOK)
}

// ValidateResetTokenHandler lida com POST /auth/validate-reset-token.
// @Summary Verifica um token de recuperação
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body domain.ResetTokenInput true "Token e e-mail"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.ErrorResponse "Token inválido ou expirado"
// @Router /auth/validate-reset-token [post]
func (h *Handler) ValidateResetTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.ResetTokenInput
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	err := h.Service.ValidateResetToken(r.Context(), input)
	h.handleServiceResponse(w, r, "Token válido", nil, err, http.StatusOK)
}

// ResetPasswordHandler lida com POST /auth/reset-password.
// @Summary Redefine a senha com um token de recuperação
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body domain.ResetPasswordInput true "Token, e-mail e nova senha"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.ErrorResponse "Token inválido ou expirado"
// @Failure 422 {object} domain.ErrorResponse
// @Router /auth/reset-password [post]
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.ResetPasswordInput
	if err := response.DecodeJSON(r, &input); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	err := h.Service.ResetPassword(r.Context(), input)
	h.handleServiceResponse(w, r, "Contraseña restablecida exitosamente", nil, err, http.StatusOK)
}

// UploadProfileImageHandler lida com POST /auth/profile-image e POST /users/profile-image.
// @Summary Envia a imagem de perfil do usuário autenticado
// @Tags auth
// @Accept mpfd
// @Produce json
// @Param profile_image formData file true "Imagem jpeg/png de até 2 MB"
// @Success 200 {object} domain.APIResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/profile-image [post]
func (h *Handler) UploadProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if err := response.ParseMultipart(w, r, maxProfileImageBody); err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	upload, closeFile, err := response.FormFile(r, "profile_image")
	if err != nil {
		h.handleServiceResponse(w, r, "", nil, err, http.StatusOK)
		return
	}
	defer closeFile()

	res, err := h.Service.UploadProfileImage(r.Context(), caller, upload)
	h.handleServiceResponse(w, r, "Imagen de perfil actualizada correctamente", res, err, http.StatusOK)
}

// ProfileImageHandler lida com GET /users/profile-image/{userId}.
// @Summary Devolve a imagem de perfil de um usuário
// @Tags users
// @Produce image/png,image/jpeg
// @Param userId path string true "ID do usuário"
// @Success 200 {file} binary
// @Failure 404 {object} domain.ErrorResponse
// @Router /users/profile-image/{userId} [get]
func (h *Handler) ProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	obj, err := h.Service.ProfileImage(r.Context(), r.PathValue("userId"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.Asset(w, r, h.Logger, obj)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
