package configuracion

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"siteadmin/internal/api/response"
	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
	"siteadmin/internal/pkg/valuecodec"
	"siteadmin/internal/service/configservice"
)

// maxUpdateBody é o limite do corpo multipart: o arquivo (10 MB) mais os campos do formulário.
const maxUpdateBody = domain.MaxConfigUploadSize + 1<<20

// ConfigService define o contrato que o Handler espera da camada de Serviço.
type ConfigService interface {
	Get(ctx context.Context, caller domain.Caller, clave string) (domain.ConfigEntry, error)
	List(ctx context.Context, caller domain.Caller, grupo string) ([]domain.ConfigEntry, error)
	Groups(ctx context.Context, caller domain.Caller) (configservice.Grouped, error)
	Update(ctx context.Context, caller domain.Caller, id int64, input domain.ValueInput) (domain.ConfigEntry, error)
	UploadImage(ctx context.Context, caller domain.Caller, id int64, upload *domain.Upload) (domain.ConfigEntry, error)
	BulkUpdate(ctx context.Context, caller domain.Caller, items []domain.ValueUpdate) error
	Snapshot(ctx context.Context) (map[string]any, error)
	Image(ctx context.Context, clave string) (*assets.Object, error)
}

// Resource é a representação de uma configuração devolvida pela API.
// ValorProcesado é o valor já decodificado conforme o tipo.
type Resource struct {
	ID             int64            `json:"id"`
	Clave          string           `json:"clave"`
	Valor          string           `json:"valor"`
	ValorProcesado any              `json:"valor_procesado"`
	Tipo           domain.ValueType `json:"tipo"`
	Descripcion    *string          `json:"descripcion"`
	Grupo          string           `json:"grupo"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewResource converte a entidade para a forma da API.
func NewResource(e domain.ConfigEntry) Resource {
	return Resource{
		ID:             e.ID,
		Clave:          e.Clave,
		Valor:          e.Valor,
		ValorProcesado: valuecodec.DecodeOrRaw(e.Tipo, e.Valor),
		Tipo:           e.Tipo,
		Descripcion:    e.Descripcion,
		Grupo:          e.Grupo,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func newResources(entries []domain.ConfigEntry) []Resource {
	out := make([]Resource, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewResource(e))
	}
	return out
}

// DataResponse envolve um recurso ou coleção em {"data": ...}.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// GroupsResponse é a resposta de GET /configuraciones/grupos.
type GroupsResponse struct {
	Grupos          []string              `json:"grupos"`
	Configuraciones map[string][]Resource `json:"configuraciones"`
}

// BulkRequest é o payload de POST /configuraciones/actualizar-multiple.
type BulkRequest struct {
	Configuraciones []domain.ValueUpdate `json:"configuraciones"`
}

// ValueRequest é o payload JSON de PUT /configuraciones/{id}.
type ValueRequest struct {
	Valor any `json:"valor"`
}

// Handler agrupa os handlers das configurações.
type Handler struct {
	Service ConfigService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ConfigService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// handleServiceResponse padroniza as respostas; NotFound segue o formato {"mensaje": ...}.
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
		return 0, apperror.NewNotFoundError("Configuración no encontrada")
	}
	return id, nil
}

// ListHandler lida com GET /configuraciones.
// @Summary Lista as configurações
// @Tags configuraciones
// @Produce json
// @Param grupo query string false "Filtra por grupo"
// @Success 200 {object} DataResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /configuraciones [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	entries, err := h.Service.List(r.Context(), caller, strings.TrimSpace(r.URL.Query().Get("grupo")))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: newResources(entries)}, nil, http.StatusOK)
}

// GroupsHandler lida com GET /configuraciones/grupos.
// @Summary Lista os grupos e as configurações de cada grupo
// @Tags configuraciones
// @Produce json
// @Success 200 {object} GroupsResponse
// @Security BearerAuth
// @Router /configuraciones/grupos [get]
func (h *Handler) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	grouped, err := h.Service.Groups(r.Context(), caller)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	resp := GroupsResponse{Grupos: grouped.Grupos, Configuraciones: make(map[string][]Resource, len(grouped.PorGrupo))}
	if resp.Grupos == nil {
		resp.Grupos = []string{}
	}
	for grupo, entries := range grouped.PorGrupo {
		resp.Configuraciones[grupo] = newResources(entries)
	}
	h.handleServiceResponse(w, r, resp, nil, http.StatusOK)
}

// ShowHandler lida com GET /configuraciones/{clave}.
// @Summary Busca uma configuração pela chave
// @Tags configuraciones
// @Produce json
// @Param clave path string true "Chave da configuração"
// @Success 200 {object} DataResponse
// @Failure 404 {object} domain.MessageResponse
// @Security BearerAuth
// @Router /configuraciones/{clave} [get]
func (h *Handler) ShowHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	entry, err := h.Service.Get(r.Context(), caller, r.PathValue("clave"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: NewResource(entry)}, nil, http.StatusOK)
}

// UpdateHandler lida com PUT /configuraciones/{id}.
// Aceita JSON {"valor": ...} ou multipart com os campos valor e/ou archivo.
// @Summary Atualiza o valor de uma configuração
// @Tags configuraciones
// @Accept json,mpfd
// @Produce json
// @Param id path int true "ID da configuração"
// @Param valor formData string false "Novo valor"
// @Param archivo formData file false "Arquivo (somente configurações do tipo imagen)"
// @Success 200 {object} DataResponse
// @Failure 404 {object} domain.MessageResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /configuraciones/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var input domain.ValueInput
	if response.IsMultipart(r) {
		if err := response.ParseMultipart(w, r, maxUpdateBody); err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		upload, closeFile, err := response.FormFile(r, "archivo")
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		defer closeFile()
		input.Archivo = upload
		if v, ok := response.FormValue(r, "valor"); ok && v != "" {
			input.Valor = v
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBody)
		var req ValueRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		input.Valor = req.Valor
	}

	entry, err := h.Service.Update(r.Context(), caller, id, input)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: NewResource(entry)}, nil, http.StatusOK)
}

// UploadImageHandler lida com POST /configuraciones/{id}/imagen.
// @Summary Substitui a imagem de uma configuração do tipo imagen
// @Tags configuraciones
// @Accept mpfd
// @Produce json
// @Param id path int true "ID da configuração"
// @Param archivo formData file true "Imagem"
// @Success 200 {object} DataResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /configuraciones/{id}/imagen [post]
func (h *Handler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if err := response.ParseMultipart(w, r, maxUpdateBody); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	upload, closeFile, err := response.FormFile(r, "archivo")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	defer closeFile()

	entry, err := h.Service.UploadImage(r.Context(), caller, id, upload)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, DataResponse{Data: NewResource(entry)}, nil, http.StatusOK)
}

// BulkUpdateHandler lida com POST /configuraciones/actualizar-multiple.
// @Summary Atualiza várias configurações de uma vez
// @Tags configuraciones
// @Accept json
// @Produce json
// @Param payload body BulkRequest true "Itens {id, valor}"
// @Success 200 {object} domain.MessageResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /configuraciones/actualizar-multiple [post]
func (h *Handler) BulkUpdateHandler(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var req BulkRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if err := h.Service.BulkUpdate(r.Context(), caller, req.Configuraciones); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, domain.MessageResponse{Mensaje: "Configuraciones actualizadas correctamente"}, nil, http.StatusOK)
}

// SnapshotHandler lida com GET /configuraciones/todas (rota pública).
// @Summary Todas as configurações como objeto chave-valor já decodificado
// @Tags configuraciones
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /configuraciones/todas [get]
func (h *Handler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Service.Snapshot(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, snapshot, nil, http.StatusOK)
}

// ImageHandler lida com GET /configuraciones/imagen/{clave} (rota pública) e envia o arquivo.
// @Summary Envia a imagem referenciada por uma configuração
// @Tags configuraciones
// @Produce octet-stream
// @Param clave path string true "Chave da configuração"
// @Success 200 {file} file
// @Failure 404 {object} domain.MessageResponse
// @Router /configuraciones/imagen/{clave} [get]
func (h *Handler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	obj, err := h.Service.Image(r.Context(), r.PathValue("clave"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	response.Asset(w, r, h.Logger, obj)
}
