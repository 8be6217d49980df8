// Package configservice implementa o armazenamento tipado de configurações do site:
// leitura, atualização (valor ou arquivo), atualização em lote e o snapshot público.
package configservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/cache"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/valuecodec"
)

// snapshotGenKey guarda a geração atual do snapshot. Cada escrita a incrementa,
// e o snapshot é gravado sob a geração lida antes da consulta ao banco: um leitor
// lento que grava linhas antigas as grava numa geração que ninguém mais lê.
const snapshotGenKey = "configuraciones:gen"

// SnapshotCacheKey devolve a chave do Redis com as linhas do snapshot de uma geração.
func SnapshotCacheKey(gen int64) string {
	return "configuraciones:todas:" + strconv.FormatInt(gen, 10)
}

// cachedRow é a forma bruta de uma entrada no cache. O cache guarda as strings
// persistidas, não os valores decodificados, para que a decodificação seja a mesma
// com ou sem cache.
type cachedRow struct {
	Clave string           `json:"clave"`
	Tipo  domain.ValueType `json:"tipo"`
	Valor string           `json:"valor"`
}

// AssetStore é o subconjunto do assets.Manager usado pelo serviço.
type AssetStore interface {
	Replace(ctx context.Context, dir, previous, filename string, content io.Reader) (string, error)
	Fetch(ctx context.Context, p string) (*assets.Object, error)
}

// Grouped é o resultado de Groups: os grupos em ordem de aparição e as entradas de cada um.
type Grouped struct {
	Grupos   []string
	PorGrupo map[string][]domain.ConfigEntry
}

// Service implementa a lógica de negócio das configuraciones.
type Service struct {
	repo     domain.ConfigRepository
	assets   AssetStore
	cache    cache.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewService cria o serviço. cacheClient pode ser nil (snapshot sem cache).
func NewService(repo domain.ConfigRepository, assetStore AssetStore, cacheClient cache.Client, cacheTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		assets:   assetStore,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func authorize(caller domain.Caller) error {
	if !caller.Authenticated() {
		return apperror.NewUnauthorizedError("No autorizado")
	}
	if !caller.CanManageSite() {
		return apperror.NewForbiddenError("Acceso denegado: No tienes permisos para gestionar las configuraciones")
	}
	return nil
}

// Get devolve a configuração pela clave.
func (s *Service) Get(ctx context.Context, caller domain.Caller, clave string) (domain.ConfigEntry, error) {
	if err := authorize(caller); err != nil {
		return domain.ConfigEntry{}, err
	}
	return s.repo.FindByKey(ctx, clave)
}

// List devolve as configurações em ordem de inserção; grupo vazio não filtra.
func (s *Service) List(ctx context.Context, caller domain.Caller, grupo string) ([]domain.ConfigEntry, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, grupo)
}

// Groups devolve as configurações agrupadas, com os grupos na ordem da primeira aparição.
func (s *Service) Groups(ctx context.Context, caller domain.Caller) (Grouped, error) {
	if err := authorize(caller); err != nil {
		return Grouped{}, err
	}

	grupos, err := s.repo.DistinctGroups(ctx)
	if err != nil {
		return Grouped{}, err
	}
	entries, err := s.repo.FindAll(ctx, "")
	if err != nil {
		return Grouped{}, err
	}

	porGrupo := make(map[string][]domain.ConfigEntry, len(grupos))
	for _, g := range grupos {
		porGrupo[g] = []domain.ConfigEntry{}
	}
	for _, e := range entries {
		porGrupo[e.Grupo] = append(porGrupo[e.Grupo], e)
	}
	return Grouped{Grupos: grupos, PorGrupo: porGrupo}, nil
}

// Update altera o valor de uma configuração. Para entradas "imagen" com arquivo,
// o arquivo é gravado antes da linha: falha de armazenamento não altera o banco.
func (s *Service) Update(ctx context.Context, caller domain.Caller, id int64, input domain.ValueInput) (domain.ConfigEntry, error) {
	if err := authorize(caller); err != nil {
		return domain.ConfigEntry{}, err
	}

	if isBlank(input.Valor) {
		input.Valor = nil
	}
	if input.Valor == nil && input.Archivo == nil {
		return domain.ConfigEntry{}, apperror.NewFieldError("valor", "El campo valor es obligatorio cuando archivo no está presente.")
	}
	if err := checkUploadSize("archivo", input.Archivo); err != nil {
		return domain.ConfigEntry{}, err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ConfigEntry{}, err
	}

	var raw string
	switch {
	case entry.Tipo.IsImage() && input.Archivo != nil:
		raw, err = s.storeImage(ctx, entry, input.Archivo)
		if err != nil {
			return domain.ConfigEntry{}, err
		}
	case input.Valor != nil:
		raw, err = encodeValue(entry, input.Valor, "valor")
		if err != nil {
			return domain.ConfigEntry{}, err
		}
	default:
		// Arquivo enviado para uma entrada que não é imagem, sem valor.
		return domain.ConfigEntry{}, apperror.NewFieldError("valor", "El campo valor es obligatorio: la configuración no es de tipo imagen.")
	}

	updated, err := s.repo.UpdateValue(ctx, entry.ID, raw)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	s.invalidateSnapshot(ctx)

	s.logger.Info("Configuração atualizada.", map[string]interface{}{"clave": updated.Clave, "user_id": caller.UserID})
	return updated, nil
}

// UploadImage substitui o arquivo de uma entrada do tipo imagen.
func (s *Service) UploadImage(ctx context.Context, caller domain.Caller, id int64, upload *domain.Upload) (domain.ConfigEntry, error) {
	if err := authorize(caller); err != nil {
		return domain.ConfigEntry{}, err
	}
	if upload == nil {
		return domain.ConfigEntry{}, apperror.NewFieldError("archivo", "El campo archivo es obligatorio.")
	}
	if err := checkUploadSize("archivo", upload); err != nil {
		return domain.ConfigEntry{}, err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	if !entry.Tipo.IsImage() {
		return domain.ConfigEntry{}, apperror.NewValidationError("Esta configuración no es de tipo imagen")
	}

	raw, err := s.storeImage(ctx, entry, upload)
	if err != nil {
		return domain.ConfigEntry{}, err
	}

	updated, err := s.repo.UpdateValue(ctx, entry.ID, raw)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	s.invalidateSnapshot(ctx)

	s.logger.Info("Imagem de configuração atualizada.", map[string]interface{}{"clave": updated.Clave, "path": raw})
	return updated, nil
}

// BulkUpdate valida todos os itens (existência dos ids numa única consulta e o formato
// dos valores json) antes de gravar qualquer um; depois grava na ordem recebida.
func (s *Service) BulkUpdate(ctx context.Context, caller domain.Caller, items []domain.ValueUpdate) error {
	if err := authorize(caller); err != nil {
		return err
	}
	if len(items) == 0 {
		return apperror.NewFieldError("configuraciones", "El campo configuraciones es obligatorio.")
	}

	vErr := apperror.NewValidationError("Error de validación")
	ids := make([]int64, 0, len(items))
	for i, it := range items {
		if it.ID <= 0 {
			vErr.Add(fmt.Sprintf("configuraciones.%d.id", i), fmt.Sprintf("El campo configuraciones.%d.id es obligatorio.", i))
		} else {
			ids = append(ids, it.ID)
		}
		if isBlank(it.Valor) {
			vErr.Add(fmt.Sprintf("configuraciones.%d.valor", i), fmt.Sprintf("El campo configuraciones.%d.valor es obligatorio.", i))
		}
	}
	if len(vErr.Fields) > 0 {
		return vErr
	}

	existing, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	raws := make([]string, len(items))
	for i, it := range items {
		entry, ok := existing[it.ID]
		if !ok {
			vErr.Add(fmt.Sprintf("configuraciones.%d.id", i), fmt.Sprintf("El campo configuraciones.%d.id seleccionado es inválido.", i))
			continue
		}
		raw, err := encodeValue(entry, it.Valor, fmt.Sprintf("configuraciones.%d.valor", i))
		if err != nil {
			var fe *apperror.ValidationError
			if errors.As(err, &fe) {
				for f, msgs := range fe.Fields {
					for _, m := range msgs {
						vErr.Add(f, m)
					}
				}
				continue
			}
			return err
		}
		raws[i] = raw
	}
	if len(vErr.Fields) > 0 {
		return vErr
	}

	written := 0
	for i, it := range items {
		if _, err := s.repo.UpdateValue(ctx, it.ID, raws[i]); err != nil {
			if written > 0 {
				s.invalidateSnapshot(ctx)
			}
			return err
		}
		written++
	}
	s.invalidateSnapshot(ctx)

	s.logger.Info("Configurações atualizadas em lote.", map[string]interface{}{"count": written, "user_id": caller.UserID})
	return nil
}

// Snapshot devolve o mapa público clave → valor decodificado.
// Valores json malformados aparecem como a string bruta.
func (s *Service) Snapshot(ctx context.Context) (map[string]any, error) {
	gen, cacheOK := s.snapshotGeneration(ctx)
	if cacheOK {
		if rows, ok := s.cachedRows(ctx, gen); ok {
			return s.decodeRows(rows), nil
		}
	}

	entries, err := s.repo.FindAll(ctx, "")
	if err != nil {
		return nil, err
	}

	rows := make([]cachedRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, cachedRow{Clave: e.Clave, Tipo: e.Tipo, Valor: e.Valor})
	}
	if cacheOK {
		s.storeRows(ctx, gen, rows)
	}
	return s.decodeRows(rows), nil
}

func (s *Service) decodeRows(rows []cachedRow) map[string]any {
	snapshot := make(map[string]any, len(rows))
	for _, row := range rows {
		v, err := valuecodec.Decode(row.Tipo, row.Valor)
		if err != nil {
			s.logger.Warn("Valor de configuração não decodificável; usando valor bruto.", map[string]interface{}{"clave": row.Clave, "tipo": string(row.Tipo)})
			v = row.Valor
		}
		snapshot[row.Clave] = v
	}
	return snapshot
}

// Image abre o arquivo de uma entrada imagen para streaming.
func (s *Service) Image(ctx context.Context, clave string) (*assets.Object, error) {
	entry, err := s.repo.FindByKey(ctx, clave)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("Imagen de configuración no encontrada")
		}
		return nil, err
	}
	if !entry.Tipo.IsImage() {
		return nil, apperror.NewNotFoundError("Imagen de configuración no encontrada")
	}
	if entry.Valor == "" {
		return nil, apperror.NewNotFoundError("Archivo de imagen no encontrado")
	}
	return s.assets.Fetch(ctx, entry.Valor)
}

func (s *Service) storeImage(ctx context.Context, entry domain.ConfigEntry, upload *domain.Upload) (string, error) {
	return s.assets.Replace(ctx, assets.ConfigDir(entry.Grupo), entry.Valor, upload.Filename, upload.Content)
}

// encodeValue converte o valor do payload para a forma bruta e garante que entradas
// json só recebem JSON válido.
func encodeValue(entry domain.ConfigEntry, v any, field string) (string, error) {
	raw, err := valuecodec.FromInput(entry.Tipo, v)
	if errors.Is(err, valuecodec.ErrNumberRange) {
		return "", apperror.NewFieldError(field, fmt.Sprintf("El campo %s debe ser un número entero.", field))
	}
	if err != nil {
		return "", apperror.NewFieldError(field, fmt.Sprintf("El campo %s no es válido.", field))
	}
	if entry.Tipo.Normalized() == domain.TypeJSON {
		if _, err := valuecodec.Decode(entry.Tipo, raw); err != nil {
			return "", apperror.NewFieldError(field, fmt.Sprintf("El campo %s debe ser una cadena JSON válida.", field))
		}
	}
	return raw, nil
}

func checkUploadSize(field string, upload *domain.Upload) error {
	if upload != nil && upload.Size > domain.MaxConfigUploadSize {
		return apperror.NewFieldError(field, fmt.Sprintf("El campo %s no debe ser mayor que 10240 kilobytes.", field))
	}
	return nil
}

// isBlank segue a regra de campo obrigatório: nil, string só com espaços,
// lista vazia e objeto vazio contam como ausentes.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// snapshotGeneration lê a geração atual. Chave ausente é a geração 0; com o
// Redis indisponível o snapshot segue sem cache.
func (s *Service) snapshotGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, snapshotGenKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, true
	}
	if err != nil {
		s.logger.Warn("Falha ao ler a geração do snapshot.", map[string]interface{}{"error": err.Error()})
		return 0, false
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("Geração do snapshot inválida; ignorando o cache.", map[string]interface{}{"value": raw})
		return 0, false
	}
	return gen, true
}

func (s *Service) cachedRows(ctx context.Context, gen int64) ([]cachedRow, bool) {
	raw, err := s.cache.Get(ctx, SnapshotCacheKey(gen))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Falha ao ler snapshot do cache.", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var rows []cachedRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		s.logger.Warn("Snapshot em cache corrompido; ignorando.", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return rows, true
}

func (s *Service) storeRows(ctx context.Context, gen int64, rows []cachedRow) {
	b, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, SnapshotCacheKey(gen), b, s.cacheTTL); err != nil {
		s.logger.Warn("Falha ao gravar snapshot no cache.", map[string]interface{}{"error": err.Error()})
	}
}

// invalidateSnapshot avança a geração depois de uma escrita no banco e remove,
// em melhor esforço, o snapshot da geração anterior.
func (s *Service) invalidateSnapshot(ctx context.Context) {
	if s.cache == nil {
		return
	}
	gen, err := s.cache.Incr(ctx, snapshotGenKey, 0)
	if err != nil {
		s.logger.Warn("Falha ao invalidar snapshot no cache.", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.cache.Delete(ctx, SnapshotCacheKey(gen-1)); err != nil {
		s.logger.Debug("Snapshot anterior não removido.", map[string]interface{}{"error": err.Error()})
	}
}
