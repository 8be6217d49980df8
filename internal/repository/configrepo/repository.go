package configrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

const selectColumns = `SELECT id, clave, valor, tipo, descripcion, grupo, created_at, updated_at FROM configuraciones`

// ConfigRepository implementa domain.ConfigRepository sobre PostgreSQL.
type ConfigRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewConfigRepository cria uma nova instância do ConfigRepository, injetando o DB.
func NewConfigRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ConfigRepository {
	return &ConfigRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (domain.ConfigEntry, error) {
	var (
		e    domain.ConfigEntry
		tipo string
		desc sql.NullString
	)
	err := row.Scan(&e.ID, &e.Clave, &e.Valor, &tipo, &desc, &e.Grupo, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	e.Tipo = domain.ValueType(tipo)
	if desc.Valid {
		e.Descripcion = &desc.String
	}
	return e, nil
}

// FindByKey busca uma configuração pela clave.
func (r *ConfigRepository) FindByKey(ctx context.Context, clave string) (domain.ConfigEntry, error) {
	r.logger.Debug("Iniciando FindByKey de configuração.", map[string]interface{}{"clave": clave})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entry, err := scanEntry(r.DB.QueryRowContext(ctxTimeout, selectColumns+` WHERE clave = $1`, clave))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ConfigEntry{}, apperror.NewNotFoundError("Configuración no encontrada")
		}
		r.logger.Error("Falha ao buscar configuração por clave no DB.", err)
		return domain.ConfigEntry{}, apperror.NewDBError("failed to find configuration by key", err)
	}
	return entry, nil
}

// FindByID busca uma configuração pelo id.
func (r *ConfigRepository) FindByID(ctx context.Context, id int64) (domain.ConfigEntry, error) {
	r.logger.Debug("Iniciando FindByID de configuração.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entry, err := scanEntry(r.DB.QueryRowContext(ctxTimeout, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ConfigEntry{}, apperror.NewNotFoundError("Configuración no encontrada")
		}
		r.logger.Error("Falha ao buscar configuração por id no DB.", err)
		return domain.ConfigEntry{}, apperror.NewDBError("failed to find configuration by id", err)
	}
	return entry, nil
}

// FindAll lista as configurações em ordem de inserção, opcionalmente filtrando pelo grupo.
func (r *ConfigRepository) FindAll(ctx context.Context, grupo string) ([]domain.ConfigEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := selectColumns + ` ORDER BY id`
	args := []interface{}{}
	if grupo != "" {
		query = selectColumns + ` WHERE grupo = $1 ORDER BY id`
		args = append(args, grupo)
	}

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar configurações no DB.", err)
		return nil, apperror.NewDBError("failed to list configurations", err)
	}
	defer rows.Close()

	entries := []domain.ConfigEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan configuration row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate configuration rows", err)
	}

	r.logger.Debug("Configurações listadas.", map[string]interface{}{"grupo": grupo, "count": len(entries)})
	return entries, nil
}

// DistinctGroups devolve os grupos na ordem da primeira entrada de cada um.
func (r *ConfigRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT grupo FROM configuraciones GROUP BY grupo ORDER BY MIN(id)`)
	if err != nil {
		r.logger.Error("Falha ao listar grupos no DB.", err)
		return nil, apperror.NewDBError("failed to list configuration groups", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, apperror.NewDBError("failed to scan group", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate groups", err)
	}
	return groups, nil
}

// UpdateValue grava o valor bruto e devolve a linha atualizada.
func (r *ConfigRepository) UpdateValue(ctx context.Context, id int64, valor string) (domain.ConfigEntry, error) {
	r.logger.Debug("Iniciando UpdateValue de configuração.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE configuraciones SET valor = $1, updated_at = NOW() WHERE id = $2
              RETURNING id, clave, valor, tipo, descripcion, grupo, created_at, updated_at`

	entry, err := scanEntry(r.DB.QueryRowContext(ctxTimeout, query, valor, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ConfigEntry{}, apperror.NewNotFoundError("Configuración no encontrada")
		}
		r.logger.Error("Falha ao atualizar configuração no DB.", err)
		return domain.ConfigEntry{}, apperror.NewDBError(fmt.Sprintf("failed to update configuration %d", id), err)
	}

	r.logger.Info("Configuração atualizada.", map[string]interface{}{"id": entry.ID, "clave": entry.Clave})
	return entry, nil
}

// FindByIDs busca, numa única consulta, as entradas cujos ids estão na lista.
func (r *ConfigRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.ConfigEntry, error) {
	found := make(map[int64]domain.ConfigEntry, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, selectColumns+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao verificar ids de configurações no DB.", err)
		return nil, apperror.NewDBError("failed to find configurations by ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan configuration row", err)
		}
		found[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate configuration rows", err)
	}
	return found, nil
}
