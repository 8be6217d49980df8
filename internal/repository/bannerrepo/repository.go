package bannerrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

const bannerColumns = `id, titulo, descripcion, imagen, texto_boton, enlace_boton, orden, activo, created_at, updated_at`

// BannerRepository implementa domain.BannerRepository sobre PostgreSQL.
type BannerRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewBannerRepository cria uma nova instância do BannerRepository, injetando o DB.
func NewBannerRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *BannerRepository {
	return &BannerRepository{DB: db, DBTimeout: dbTimeout, logger: log}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBanner(row scanner) (domain.Banner, error) {
	var (
		b    domain.Banner
		desc sql.NullString
	)
	err := row.Scan(&b.ID, &b.Titulo, &desc, &b.Imagen, &b.TextoBoton, &b.EnlaceBoton, &b.Orden, &b.Activo, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Banner{}, err
	}
	if desc.Valid {
		b.Descripcion = &desc.String
	}
	return b, nil
}

// Save insere um novo banner e devolve a linha com id e timestamps.
func (r *BannerRepository) Save(ctx context.Context, banner domain.Banner) (domain.Banner, error) {
	r.logger.Debug("Iniciando Save de banner no repositório.", map[string]interface{}{"titulo": banner.Titulo})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO banners (titulo, descripcion, imagen, texto_boton, enlace_boton, orden, activo, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
              RETURNING ` + bannerColumns

	saved, err := scanBanner(r.DB.QueryRowContext(ctxTimeout, query,
		banner.Titulo, banner.Descripcion, banner.Imagen, banner.TextoBoton, banner.EnlaceBoton, banner.Orden, banner.Activo))
	if err != nil {
		r.logger.Error("Falha ao inserir banner no DB.", err)
		return domain.Banner{}, apperror.NewDBError("failed to insert banner", err)
	}

	r.logger.Info("Banner salvo com sucesso no repositório.", map[string]interface{}{"banner_id": saved.ID})
	return saved, nil
}

// FindByID busca um banner pelo id.
func (r *BannerRepository) FindByID(ctx context.Context, id int64) (domain.Banner, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	b, err := scanBanner(r.DB.QueryRowContext(ctxTimeout, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Banner{}, apperror.NewNotFoundError("Banner no encontrado")
		}
		r.logger.Error("Falha ao buscar banner no DB.", err)
		return domain.Banner{}, apperror.NewDBError("failed to find banner", err)
	}
	return b, nil
}

// FindAll lista os banners por orden (e id, para desempate).
func (r *BannerRepository) FindAll(ctx context.Context, onlyActive bool) ([]domain.Banner, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + bannerColumns + ` FROM banners`
	if onlyActive {
		query += ` WHERE activo = TRUE`
	}
	query += ` ORDER BY orden, id`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar banners no DB.", err)
		return nil, apperror.NewDBError("failed to list banners", err)
	}
	defer rows.Close()

	banners := []domain.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan banner row", err)
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate banner rows", err)
	}
	return banners, nil
}

// Update grava todos os campos editáveis do banner.
func (r *BannerRepository) Update(ctx context.Context, banner domain.Banner) (domain.Banner, error) {
	r.logger.Debug("Iniciando Update de banner.", map[string]interface{}{"banner_id": banner.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE banners SET titulo = $1, descripcion = $2, imagen = $3, texto_boton = $4,
              enlace_boton = $5, orden = $6, activo = $7, updated_at = NOW()
              WHERE id = $8
              RETURNING ` + bannerColumns

	updated, err := scanBanner(r.DB.QueryRowContext(ctxTimeout, query,
		banner.Titulo, banner.Descripcion, banner.Imagen, banner.TextoBoton, banner.EnlaceBoton, banner.Orden, banner.Activo, banner.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Banner{}, apperror.NewNotFoundError("Banner no encontrado")
		}
		r.logger.Error("Falha ao atualizar banner no DB.", err)
		return domain.Banner{}, apperror.NewDBError("failed to update banner", err)
	}

	r.logger.Info("Banner atualizado.", map[string]interface{}{"banner_id": updated.ID})
	return updated, nil
}

// Delete remove o banner.
func (r *BannerRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover banner no DB.", err)
		return apperror.NewDBError("failed to delete banner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read affected rows", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError("Banner no encontrado")
	}

	r.logger.Info("Banner removido.", map[string]interface{}{"banner_id": id})
	return nil
}
