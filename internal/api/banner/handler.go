package banner

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"siteadmin/internal/api/response"
	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
)

// maxBannerBody limita o corpo multipart. Imagens acima de 2 MB ainda chegam ao serviço,
// que responde com o erro de campo apropriado.
const maxBannerBody = domain.MaxConfigUploadSize + 1<<20

// BannerService define o contrato que o Handler espera da camada de Serviço.
type BannerService interface {
	ListActive(ctx context.Context) ([]domain.Banner, error)
	Get(ctx context.Context, id int64) (domain.Banner, error)
	ListAll(ctx context.Context, caller domain.Caller) ([]domain.Banner, error)
	Create(ctx context.Context, caller domain.Caller, input domain.BannerInput) (domain.Banner, error)
	Update(ctx context.Context, caller domain.Caller, id int64, patch domain.BannerPatch) (domain.Banner, error)
	Delete(ctx context.Context, caller domain.Caller, id int64) error
}

// DataResponse envolve um banner ou uma lista em {"data": ...}.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// Handler agrupa os handlers de banners.
type Handler struct {
	Service BannerService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc BannerService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		response.JSON(w, h.Logger, successStatus, data)
		return
	}
	if apperror.IsNotFound(err) {
		response.JSON(w, h.Logger, http.StatusNotFound, domain.MessageResponse{Mensaje: err.Error()})
		return
	}
	response.Error(w, r, h.Logger, err)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError("Banner no encontrado")
	}
	return id, nil
}

// IndexHandler lida com GET /banners (rota pública): somente banners ativos, ordenados.
// @Summary Lista os banners ativos
// @Tags banners
// @Produce json
// @Success 200 {object} DataResponse
// @Router /banners [get]
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	banners, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: nonNil(banners)}, nil, http.StatusOK)
}

// AdminHandler lida com GET /admin/banners: todos os banners, inclusive inativos.
// @Summary Lista todos os banners (painel)
// @Tags banners
// @Produce json
// @Success 200 {object} DataResponse
// @Security BearerAuth
// @Router /admin/banners [get]
func (h *Handler) AdminHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	banners, err := h.Service.ListAll(r.Context(), caller)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: nonNil(banners)}, nil, http.StatusOK)
}

// ShowHandler lida com GET /banners/{id}.
// @Summary Busca um banner
// @Tags banners
// @Produce json
// @Param id path int true "ID do banner"
// @Success 200 {object} DataResponse
// @Failure 404 {object} domain.MessageResponse
// @Router /banners/{id} [get]
func (h *Handler) ShowHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: b}, nil, http.StatusOK)
}

// StoreHandler lida com POST /banners (multipart).
// @Summary Cria um banner
// @Tags banners
// @Accept mpfd
// @Produce json
// @Param titulo formData string true "Título"
// @Param descripcion formData string false "Descrição"
// @Param imagen formData file true "Imagem (jpeg, png, gif; até 2 MB)"
// @Param texto_boton formData string true "Texto do botão"
// @Param enlace_boton formData string true "Link do botão"
// @Param orden formData int true "Ordem"
// @Param activo formData bool false "Ativo"
// @Success 201 {object} DataResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /banners [post]
func (h *Handler) StoreHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if err := response.ParseMultipart(w, r, maxBannerBody); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	upload, closeFile, err := response.FormFile(r, "imagen")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	defer closeFile()

	form := formReader{r: r, errs: apperror.NewValidationError("Error de validación")}
	input := domain.BannerInput{
		Titulo:      form.str("titulo"),
		Descripcion: form.optStr("descripcion"),
		TextoBoton:  form.str("texto_boton"),
		EnlaceBoton: form.str("enlace_boton"),
		Activo:      form.optBool("activo"),
		Imagen:      upload,
	}
	if form.str("orden") == "" {
		form.errs.Add("orden", "El campo orden es obligatorio.")
	} else if orden := form.optInt("orden"); orden != nil {
		input.Orden = *orden
	}
	if len(form.errs.Fields) > 0 {
		h.handleServiceResponse(w, r, nil, form.errs, http.StatusCreated)
		return
	}

	b, err := h.Service.Create(r.Context(), caller, input)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: b}, nil, http.StatusCreated)
}

// UpdateHandler lida com POST /admin/banners/{id} (multipart, atualização parcial).
// @Summary Atualiza um banner
// @Tags banners
// @Accept mpfd
// @Produce json
// @Param id path int true "ID do banner"
// @Param titulo formData string false "Título"
// @Param imagen formData file false "Nova imagem"
// @Success 200 {object} DataResponse
// @Failure 404 {object} domain.MessageResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/banners/{id} [post]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if err := response.ParseMultipart(w, r, maxBannerBody); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	upload, closeFile, err := response.FormFile(r, "imagen")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	defer closeFile()

	form := formReader{r: r, errs: apperror.NewValidationError("Error de validación")}
	patch := domain.BannerPatch{
		Titulo:      form.optStr("titulo"),
		Descripcion: form.optStr("descripcion"),
		TextoBoton:  form.optStr("texto_boton"),
		EnlaceBoton: form.optStr("enlace_boton"),
		Orden:       form.optInt("orden"),
		Activo:      form.optBool("activo"),
		Imagen:      upload,
	}
	if len(form.errs.Fields) > 0 {
		h.handleServiceResponse(w, r, nil, form.errs, http.StatusOK)
		return
	}

	b, err := h.Service.Update(r.Context(), caller, id, patch)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: b}, nil, http.StatusOK)
}

// DeleteHandler lida com DELETE /banners/{id}.
// @Summary Remove um banner
// @Tags banners
// @Produce json
// @Param id path int true "ID do banner"
// @Success 200 {object} domain.MessageResponse
// @Failure 404 {object} domain.MessageResponse
// @Security BearerAuth
// @Router /banners/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if err := h.Service.Delete(r.Context(), caller, id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, domain.MessageResponse{Mensaje: "Banner eliminado correctamente"}, nil, http.StatusOK)
}

func nonNil(banners []domain.Banner) []domain.Banner {
	if banners == nil {
		return []domain.Banner{}
	}
	return banners
}

// formReader lê campos do formulário acumulando erros de conversão.
type formReader struct {
	r    *http.Request
	errs *apperror.ValidationError
}

func (f formReader) str(field string) string {
	v, _ := response.FormValue(f.r, field)
	return strings.TrimSpace(v)
}

func (f formReader) optStr(field string) *string {
	v, ok := response.FormValue(f.r, field)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

func (f formReader) optInt(field string) *int {
	v, ok := response.FormValue(f.r, field)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		f.errs.Add(field, "El campo "+field+" debe ser un número entero.")
		return nil
	}
	return &n
}

func (f formReader) optBool(field string) *bool {
	v, ok := response.FormValue(f.r, field)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true":
		b = true
	case "0", "false":
		b = false
	default:
		f.errs.Add(field, "El campo "+field+" debe ser verdadero o falso.")
		return nil
	}
	return &b
}
