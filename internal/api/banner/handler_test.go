package banner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"siteadmin/internal/api/banner"
	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
)

type MockBannerService struct {
	mock.Mock
}

func (m *MockBannerService) ListActive(ctx context.Context) ([]domain.Banner, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Banner), args.Error(1)
}

func (m *MockBannerService) Get(ctx context.Context, id int64) (domain.Banner, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Banner), args.Error(1)
}

func (m *MockBannerService) ListAll(ctx context.Context, caller domain.Caller) ([]domain.Banner, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]domain.Banner), args.Error(1)
}

func (m *MockBannerService) Create(ctx context.Context, caller domain.Caller, input domain.BannerInput) (domain.Banner, error) {
	args := m.Called(ctx, caller, input)
	return args.Get(0).(domain.Banner), args.Error(1)
}

func (m *MockBannerService) Update(ctx context.Context, caller domain.Caller, id int64, patch domain.BannerPatch) (domain.Banner, error) {
	args := m.Called(ctx, caller, id, patch)
	return args.Get(0).(domain.Banner), args.Error(1)
}

func (m *MockBannerService) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	return m.Called(ctx, caller, id).Error(0)
}

var author = domain.Caller{UserID: "u-autor", Role: domain.RoleAuthor}

func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req = req.WithContext(middleware.WithCaller(req.Context(), author))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func form(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		fw, err := mw.CreateFormFile("imagen", "oferta.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nimagem"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIndexHandler_EmptyListIsArray(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())
	svc.On("ListActive", mock.Anything).Return([]domain.Banner(nil), nil)

	rec := serve("GET /banners", h.IndexHandler, httptest.NewRequest(http.MethodGet, "/banners", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestShowHandler_NotFound(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())
	svc.On("Get", mock.Anything, int64(42)).Return(domain.Banner{}, apperror.NewNotFoundError("Banner no encontrado"))

	rec := serve("GET /banners/{id}", h.ShowHandler, httptest.NewRequest(http.MethodGet, "/banners/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Banner no encontrado", decode(t, rec)["mensaje"])
}

func TestStoreHandler_Created(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())

	svc.On("Create", mock.Anything, author, mock.MatchedBy(func(in domain.BannerInput) bool {
		return in.Titulo == "Ofertas" && in.Orden == 2 && in.Activo != nil && !*in.Activo &&
			in.Imagen != nil && in.Imagen.Filename == "oferta.png" && in.Descripcion == nil
	})).Return(domain.Banner{ID: 4, Titulo: "Ofertas", Imagen: "assets/banners/1700000000_oferta.png"}, nil)

	body, ct := form(t, map[string]string{
		"titulo": "Ofertas", "texto_boton": "Ver", "enlace_boton": "/ofertas", "orden": "2", "activo": "0",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/banners", body)
	req.Header.Set("Content-Type", ct)
	rec := serve("POST /banners", h.StoreHandler, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["id"])
	svc.AssertExpectations(t)
}

func TestStoreHandler_FormErrors(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())

	body, ct := form(t, map[string]string{"titulo": "X", "activo": "talvez"}, true)
	req := httptest.NewRequest(http.MethodPost, "/banners", body)
	req.Header.Set("Content-Type", ct)
	rec := serve("POST /banners", h.StoreHandler, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "orden")
	assert.Contains(t, errs, "activo")
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateHandler_PartialFields(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())

	svc.On("Update", mock.Anything, author, int64(3), mock.MatchedBy(func(p domain.BannerPatch) bool {
		return p.Orden != nil && *p.Orden == 7 && p.Titulo == nil && p.Imagen == nil && p.Activo == nil
	})).Return(domain.Banner{ID: 3, Orden: 7}, nil)

	body, ct := form(t, map[string]string{"orden": "7"}, false)
	req := httptest.NewRequest(http.MethodPost, "/admin/banners/3", body)
	req.Header.Set("Content-Type", ct)
	rec := serve("POST /admin/banners/{id}", h.UpdateHandler, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestDeleteHandler(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())
	svc.On("Delete", mock.Anything, author, int64(3)).Return(nil)

	rec := serve("DELETE /banners/{id}", h.DeleteHandler, httptest.NewRequest(http.MethodDelete, "/banners/3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Banner eliminado correctamente", decode(t, rec)["mensaje"])
}

func TestAdminHandler_Forbidden(t *testing.T) {
	svc := new(MockBannerService)
	h := banner.NewHandler(svc, logger.Nop())
	svc.On("ListAll", mock.Anything, author).Return([]domain.Banner(nil), apperror.NewForbiddenError("Acceso denegado"))

	rec := serve("GET /admin/banners", h.AdminHandler, httptest.NewRequest(http.MethodGet, "/admin/banners", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}
