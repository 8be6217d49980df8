package configservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/cache/cachetest"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/service/configservice"
)

// MockConfigRepository é uma implementação mock de domain.ConfigRepository
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) FindByKey(ctx context.Context, clave string) (domain.ConfigEntry, error) {
	args := m.Called(ctx, clave)
	return args.Get(0).(domain.ConfigEntry), args.Error(1)
}

func (m *MockConfigRepository) FindByID(ctx context.Context, id int64) (domain.ConfigEntry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ConfigEntry), args.Error(1)
}

func (m *MockConfigRepository) FindAll(ctx context.Context, grupo string) ([]domain.ConfigEntry, error) {
	args := m.Called(ctx, grupo)
	return args.Get(0).([]domain.ConfigEntry), args.Error(1)
}

func (m *MockConfigRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockConfigRepository) UpdateValue(ctx context.Context, id int64, valor string) (domain.ConfigEntry, error) {
	args := m.Called(ctx, id, valor)
	return args.Get(0).(domain.ConfigEntry), args.Error(1)
}

func (m *MockConfigRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.ConfigEntry, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]domain.ConfigEntry), args.Error(1)
}

// MockAssetStore é uma implementação mock de configservice.AssetStore
type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) Replace(ctx context.Context, dir, previous, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, dir, previous, filename, content)
	return args.String(0), args.Error(1)
}

func (m *MockAssetStore) Fetch(ctx context.Context, p string) (*assets.Object, error) {
	args := m.Called(ctx, p)
	obj, _ := args.Get(0).(*assets.Object)
	return obj, args.Error(1)
}

var (
	admin   = domain.Caller{UserID: "u-admin", Role: domain.RoleAdmin}
	author  = domain.Caller{UserID: "u-autor", Role: domain.RoleAuthor}
	client  = domain.Caller{UserID: "u-cliente", Role: domain.RoleClient}
	anonymo = domain.Caller{}
)

func maintenanceEntry(valor string) domain.ConfigEntry {
	return domain.ConfigEntry{ID: 15, Clave: "modo_mantenimiento", Valor: valor, Tipo: domain.TypeBoolean, Grupo: "general"}
}

func logoEntry() domain.ConfigEntry {
	return domain.ConfigEntry{ID: 1, Clave: "logo_principal", Valor: "assets/configuraciones/apariencia/1746991300_mi_logo.png", Tipo: domain.TypeImage, Grupo: "apariencia"}
}

func newService(repo *MockConfigRepository, store configservice.AssetStore, mem *cachetest.Memory) *configservice.Service {
	if store == nil {
		store = new(MockAssetStore)
	}
	if mem == nil {
		return configservice.NewService(repo, store, nil, time.Minute, logger.Nop())
	}
	return configservice.NewService(repo, store, mem, time.Minute, logger.Nop())
}

// --- Autorização ---

func TestProtectedOperations_RequirePanelRole(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())
	ctx := context.Background()

	_, err := svc.List(ctx, anonymo, "")
	assert.IsType(t, &apperror.UnauthorizedError{}, err)

	_, err = svc.Get(ctx, client, "nombre_sitio")
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	_, err = svc.Update(ctx, client, 1, domain.ValueInput{Valor: "x"})
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	err = svc.BulkUpdate(ctx, client, []domain.ValueUpdate{{ID: 1, Valor: "x"}})
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

// --- Cenário modo_mantenimiento ---

func TestMaintenanceModeScenario(t *testing.T) {
	repo := new(MockConfigRepository)
	mem := cachetest.New()
	svc := newService(repo, nil, mem)
	ctx := context.Background()

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{maintenanceEntry("0")}, nil).Once()

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, snapshot["modo_mantenimiento"])
	assert.True(t, mem.Has(configservice.SnapshotCacheKey(0)))

	repo.On("FindByID", mock.Anything, int64(15)).Return(maintenanceEntry("0"), nil)
	repo.On("UpdateValue", mock.Anything, int64(15), "1").Return(maintenanceEntry("1"), nil)

	updated, err := svc.Update(ctx, author, 15, domain.ValueInput{Valor: true})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.Valor)
	assert.False(t, mem.Has(configservice.SnapshotCacheKey(0)), "o snapshot deve ser invalidado após a escrita")

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{maintenanceEntry("1")}, nil).Once()

	snapshot, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, snapshot["modo_mantenimiento"])
	repo.AssertExpectations(t)
}

// --- Update ---

func TestUpdate_StringValuePassesThrough(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	entry := domain.ConfigEntry{ID: 13, Clave: "nombre_sitio", Valor: "Mi Aplicación", Tipo: domain.TypeText, Grupo: "general"}
	repo.On("FindByID", mock.Anything, int64(13)).Return(entry, nil)
	repo.On("UpdateValue", mock.Anything, int64(13), "Nuevo Sitio").Return(entry, nil)

	_, err := svc.Update(context.Background(), admin, 13, domain.ValueInput{Valor: "Nuevo Sitio"})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdate_JSONValueIsSerialized(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	entry := domain.ConfigEntry{ID: 12, Clave: "redes_sociales", Valor: "{}", Tipo: domain.TypeJSON, Grupo: "social"}
	repo.On("FindByID", mock.Anything, int64(12)).Return(entry, nil)
	repo.On("UpdateValue", mock.Anything, int64(12), `{"facebook":"https://facebook.com/x"}`).Return(entry, nil)

	_, err := svc.Update(context.Background(), admin, 12, domain.ValueInput{Valor: map[string]any{"facebook": "https://facebook.com/x"}})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidJSONRejected(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	entry := domain.ConfigEntry{ID: 12, Clave: "redes_sociales", Valor: "{}", Tipo: domain.TypeJSON, Grupo: "social"}
	repo.On("FindByID", mock.Anything, int64(12)).Return(entry, nil)

	_, err := svc.Update(context.Background(), admin, 12, domain.ValueInput{Valor: "{no es json"})
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "valor")
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_MissingValueAndFile(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	_, err := svc.Update(context.Background(), admin, 1, domain.ValueInput{})
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "valor")
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdate_BlankValueIsMissing(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	for _, blank := range []any{"", "   ", []any{}, map[string]any{}} {
		_, err := svc.Update(context.Background(), admin, 13, domain.ValueInput{Valor: blank})
		require.Error(t, err, "valor=%#v", blank)
		assert.Contains(t, apperror.FieldsOf(err), "valor")
	}
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_LargeIntegerKeepsPrecision(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	entry := domain.ConfigEntry{ID: 12, Clave: "redes_sociales", Valor: "{}", Tipo: domain.TypeJSON, Grupo: "social"}
	repo.On("FindByID", mock.Anything, int64(12)).Return(entry, nil)
	repo.On("UpdateValue", mock.Anything, int64(12), `{"id":9007199254740993}`).Return(entry, nil)

	_, err := svc.Update(context.Background(), admin, 12, domain.ValueInput{Valor: map[string]any{"id": json.Number("9007199254740993")}})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdate_NumberOutOfRangeRejected(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	items := domain.ConfigEntry{ID: 16, Clave: "items_por_pagina", Valor: "10", Tipo: domain.TypeNumber, Grupo: "general"}
	repo.On("FindByID", mock.Anything, int64(16)).Return(items, nil)

	for _, n := range []json.Number{"1e19", "-1e19"} {
		_, err := svc.Update(context.Background(), admin, 16, domain.ValueInput{Valor: n})
		require.Error(t, err)
		assert.Equal(t, []string{"El campo valor debe ser un número entero."}, apperror.FieldsOf(err)["valor"])
	}
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_UnknownID(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	repo.On("FindByID", mock.Anything, int64(999)).Return(domain.ConfigEntry{}, apperror.NewNotFoundError("Configuración no encontrada"))

	_, err := svc.Update(context.Background(), admin, 999, domain.ValueInput{Valor: "x"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_ImageWithFileReplacesAsset(t *testing.T) {
	repo := new(MockConfigRepository)
	store := new(MockAssetStore)
	svc := newService(repo, store, cachetest.New())

	entry := logoEntry()
	content := strings.NewReader("png")
	newPath := "assets/configuraciones/apariencia/1747000000_nuevo.png"

	repo.On("FindByID", mock.Anything, int64(1)).Return(entry, nil)
	store.On("Replace", mock.Anything, "assets/configuraciones/apariencia", entry.Valor, "nuevo.png", content).Return(newPath, nil)
	updatedEntry := entry
	updatedEntry.Valor = newPath
	repo.On("UpdateValue", mock.Anything, int64(1), newPath).Return(updatedEntry, nil)

	got, err := svc.Update(context.Background(), admin, 1, domain.ValueInput{Archivo: &domain.Upload{Filename: "nuevo.png", Size: 3, Content: content}})
	require.NoError(t, err)
	assert.Equal(t, newPath, got.Valor)
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestUpdate_StorageFailureLeavesRowUntouched(t *testing.T) {
	repo := new(MockConfigRepository)
	store := new(MockAssetStore)
	svc := newService(repo, store, cachetest.New())

	repo.On("FindByID", mock.Anything, int64(1)).Return(logoEntry(), nil)
	store.On("Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", apperror.NewStorageError("no se pudo guardar el archivo", errors.New("disco cheio")))

	_, err := svc.Update(context.Background(), admin, 1, domain.ValueInput{Archivo: &domain.Upload{Filename: "x.png", Content: strings.NewReader("x")}})
	require.Error(t, err)
	assert.IsType(t, &apperror.StorageError{}, err)
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_FileForNonImageEntry(t *testing.T) {
	repo := new(MockConfigRepository)
	store := new(MockAssetStore)
	svc := newService(repo, store, cachetest.New())

	repo.On("FindByID", mock.Anything, int64(15)).Return(maintenanceEntry("0"), nil)

	_, err := svc.Update(context.Background(), admin, 15, domain.ValueInput{Archivo: &domain.Upload{Filename: "x.png", Content: strings.NewReader("x")}})
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "valor")
	store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_FileTooLarge(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	_, err := svc.Update(context.Background(), admin, 1, domain.ValueInput{Archivo: &domain.Upload{Filename: "x.png", Size: domain.MaxConfigUploadSize + 1}})
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "archivo")
}

// --- UploadImage ---

func TestUploadImage_NonImageEntry(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	repo.On("FindByID", mock.Anything, int64(15)).Return(maintenanceEntry("0"), nil)

	_, err := svc.UploadImage(context.Background(), admin, 15, &domain.Upload{Filename: "x.png", Content: strings.NewReader("x")})
	require.Error(t, err)
	var vErr *apperror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Esta configuración no es de tipo imagen", vErr.Msg)
}

func TestUploadImage_RequiresFile(t *testing.T) {
	svc := newService(new(MockConfigRepository), nil, cachetest.New())

	_, err := svc.UploadImage(context.Background(), admin, 1, nil)
	assert.Contains(t, apperror.FieldsOf(err), "archivo")
}

// --- BulkUpdate ---

func TestBulkUpdate_UnknownIDWritesNothing(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	repo.On("FindByIDs", mock.Anything, []int64{15, 999}).Return(map[int64]domain.ConfigEntry{15: maintenanceEntry("0")}, nil)

	err := svc.BulkUpdate(context.Background(), admin, []domain.ValueUpdate{{ID: 15, Valor: "1"}, {ID: 999, Valor: "x"}})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "configuraciones.1.id")
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkUpdate_MissingFields(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	err := svc.BulkUpdate(context.Background(), admin, []domain.ValueUpdate{{ID: 0, Valor: nil}})
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "configuraciones.0.id")
	assert.Contains(t, fields, "configuraciones.0.valor")

	err = svc.BulkUpdate(context.Background(), admin, nil)
	assert.Contains(t, apperror.FieldsOf(err), "configuraciones")
	repo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestBulkUpdate_AppliesInOrderAndInvalidatesCache(t *testing.T) {
	repo := new(MockConfigRepository)
	mem := cachetest.New()
	svc := newService(repo, nil, mem)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, configservice.SnapshotCacheKey(0), "[]", time.Minute))

	items := domain.ConfigEntry{ID: 16, Clave: "items_por_pagina", Valor: "10", Tipo: domain.TypeNumber, Grupo: "general"}
	repo.On("FindByIDs", mock.Anything, []int64{15, 16}).Return(map[int64]domain.ConfigEntry{15: maintenanceEntry("0"), 16: items}, nil)

	var order []int64
	repo.On("UpdateValue", mock.Anything, int64(15), "1").Run(func(args mock.Arguments) { order = append(order, 15) }).Return(maintenanceEntry("1"), nil)
	repo.On("UpdateValue", mock.Anything, int64(16), "25").Run(func(args mock.Arguments) { order = append(order, 16) }).Return(items, nil)

	err := svc.BulkUpdate(ctx, admin, []domain.ValueUpdate{{ID: 15, Valor: true}, {ID: 16, Valor: float64(25)}})
	require.NoError(t, err)
	assert.Equal(t, []int64{15, 16}, order)
	assert.False(t, mem.Has(configservice.SnapshotCacheKey(0)))
}

func TestBulkUpdate_BlankValuesAreMissing(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	err := svc.BulkUpdate(context.Background(), admin, []domain.ValueUpdate{
		{ID: 13, Valor: ""},
		{ID: 12, Valor: []any{}},
		{ID: 15, Valor: false},
	})
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "configuraciones.0.valor")
	assert.Contains(t, fields, "configuraciones.1.valor")
	assert.NotContains(t, fields, "configuraciones.2.valor", "false é um valor presente")
	repo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkUpdate_InvalidJSONValue(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	jsonEntry := domain.ConfigEntry{ID: 12, Clave: "redes_sociales", Valor: "{}", Tipo: domain.TypeJSON}
	repo.On("FindByIDs", mock.Anything, []int64{12}).Return(map[int64]domain.ConfigEntry{12: jsonEntry}, nil)

	err := svc.BulkUpdate(context.Background(), admin, []domain.ValueUpdate{{ID: 12, Valor: "{roto"}})
	assert.Contains(t, apperror.FieldsOf(err), "configuraciones.0.valor")
	repo.AssertNotCalled(t, "UpdateValue", mock.Anything, mock.Anything, mock.Anything)
}

// --- Snapshot ---

func TestSnapshot_DecodesAndFallsBack(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, nil)

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{
		{Clave: "items_por_pagina", Valor: "10", Tipo: domain.TypeNumber},
		{Clave: "gradiente_colores", Valor: `{"inicio":"#4F46E5","fin":"#10B981"}`, Tipo: domain.TypeJSON},
		{Clave: "legado", Valor: "{roto", Tipo: domain.TypeJSON},
		{Clave: "color_primario", Valor: "#3B82F6", Tipo: domain.TypeColor},
		{Clave: "usar_gradiente", Valor: "false", Tipo: domain.TypeBoolean},
	}, nil)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), snapshot["items_por_pagina"])
	assert.Equal(t, map[string]any{"inicio": "#4F46E5", "fin": "#10B981"}, snapshot["gradiente_colores"])
	assert.Equal(t, "{roto", snapshot["legado"])
	assert.Equal(t, "#3B82F6", snapshot["color_primario"])
	assert.Equal(t, true, snapshot["usar_gradiente"])
}

func TestSnapshot_ServedFromCache(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{maintenanceEntry("0")}, nil).Once()

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, false, snapshot["modo_mantenimiento"])
	repo.AssertNumberOfCalls(t, "FindAll", 1)
}

func TestSnapshot_CachedMatchesUncached(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, cachetest.New())

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{
		{Clave: "limite", Valor: "9007199254740993", Tipo: domain.TypeNumber},
		{Clave: "ids", Valor: `{"id":9007199254740993}`, Tipo: domain.TypeJSON},
		{Clave: "modo_mantenimiento", Valor: "1", Tipo: domain.TypeBoolean},
	}, nil).Once()

	fresh, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	cached, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(9007199254740993), fresh["limite"])
	assert.Equal(t, fresh, cached)
	repo.AssertNumberOfCalls(t, "FindAll", 1)
}

// racingRepo simula uma escrita confirmada enquanto o snapshot ainda lê as linhas.
type racingRepo struct {
	domain.ConfigRepository

	mu        sync.Mutex
	valor     string
	duringAll func()
}

func (r *racingRepo) FindAll(_ context.Context, _ string) ([]domain.ConfigEntry, error) {
	r.mu.Lock()
	rows := []domain.ConfigEntry{maintenanceEntry(r.valor)}
	hook := r.duringAll
	r.duringAll = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return rows, nil
}

func (r *racingRepo) FindByID(_ context.Context, _ int64) (domain.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maintenanceEntry(r.valor), nil
}

func (r *racingRepo) UpdateValue(_ context.Context, _ int64, valor string) (domain.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valor = valor
	return maintenanceEntry(valor), nil
}

func TestSnapshot_WriteDuringReadIsNotCachedAsCurrent(t *testing.T) {
	repo := &racingRepo{valor: "0"}
	svc := configservice.NewService(repo, new(MockAssetStore), cachetest.New(), time.Minute, logger.Nop())
	ctx := context.Background()

	repo.duringAll = func() {
		_, err := svc.Update(ctx, admin, 15, domain.ValueInput{Valor: true})
		require.NoError(t, err)
	}

	stale, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, stale["modo_mantenimiento"], "a leitura começou antes da escrita")

	next, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, next["modo_mantenimiento"])
}

func TestSnapshot_CacheDownFallsBackToDB(t *testing.T) {
	repo := new(MockConfigRepository)
	mem := cachetest.New()
	mem.Err = errors.New("redis fora do ar")
	svc := newService(repo, nil, mem)

	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{maintenanceEntry("1")}, nil)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, snapshot["modo_mantenimiento"])
}

// --- Groups / Image ---

func TestGroups(t *testing.T) {
	repo := new(MockConfigRepository)
	svc := newService(repo, nil, nil)

	repo.On("DistinctGroups", mock.Anything).Return([]string{"apariencia", "general"}, nil)
	repo.On("FindAll", mock.Anything, "").Return([]domain.ConfigEntry{logoEntry(), maintenanceEntry("0")}, nil)

	grouped, err := svc.Groups(context.Background(), author)
	require.NoError(t, err)
	assert.Equal(t, []string{"apariencia", "general"}, grouped.Grupos)
	assert.Len(t, grouped.PorGrupo["apariencia"], 1)
	assert.Equal(t, "modo_mantenimiento", grouped.PorGrupo["general"][0].Clave)
}

func TestImage(t *testing.T) {
	repo := new(MockConfigRepository)
	store := new(MockAssetStore)
	svc := newService(repo, store, nil)
	ctx := context.Background()

	repo.On("FindByKey", mock.Anything, "modo_mantenimiento").Return(maintenanceEntry("0"), nil)
	_, err := svc.Image(ctx, "modo_mantenimiento")
	assert.True(t, apperror.IsNotFound(err))

	repo.On("FindByKey", mock.Anything, "nao_existe").Return(domain.ConfigEntry{}, apperror.NewNotFoundError("Configuración no encontrada"))
	_, err = svc.Image(ctx, "nao_existe")
	assert.True(t, apperror.IsNotFound(err))

	entry := logoEntry()
	obj := &assets.Object{Body: io.NopCloser(strings.NewReader("png")), ContentType: "image/png"}
	repo.On("FindByKey", mock.Anything, "logo_principal").Return(entry, nil)
	store.On("Fetch", mock.Anything, entry.Valor).Return(obj, nil)
	got, err := svc.Image(ctx, "logo_principal")
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.ContentType)
}
