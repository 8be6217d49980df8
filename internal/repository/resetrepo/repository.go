package resetrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

// ResetRepository implementa domain.PasswordResetRepository sobre a tabela password_reset_tokens.
type ResetRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewResetRepository cria o repositório de pedidos de recuperação de senha.
func NewResetRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ResetRepository {
	return &ResetRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Save grava o pedido; um pedido anterior do mesmo e-mail é substituído.
func (r *ResetRepository) Save(ctx context.Context, reset domain.PasswordReset) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO password_reset_tokens (email, token, created_at) VALUES ($1, $2, $3)
         ON CONFLICT (email) DO UPDATE SET token = EXCLUDED.token, created_at = EXCLUDED.created_at`,
		reset.Email, reset.TokenHash, reset.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao gravar token de recuperação no DB.", err)
		return apperror.NewDBError("failed to save password reset token", err)
	}
	return nil
}

// Find devolve o pedido do e-mail, ou NotFoundError.
func (r *ResetRepository) Find(ctx context.Context, email string) (domain.PasswordReset, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var reset domain.PasswordReset
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT email, token, created_at FROM password_reset_tokens WHERE email = $1`, email).
		Scan(&reset.Email, &reset.TokenHash, &reset.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PasswordReset{}, apperror.NewNotFoundError("Token de recuperación no encontrado")
		}
		r.logger.Error("Falha ao buscar token de recuperação no DB.", err)
		return domain.PasswordReset{}, apperror.NewDBError("failed to find password reset token", err)
	}
	return reset, nil
}

// Delete remove o pedido do e-mail; não existir não é erro.
func (r *ResetRepository) Delete(ctx context.Context, email string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM password_reset_tokens WHERE email = $1`, email); err != nil {
		r.logger.Error("Falha ao remover token de recuperação no DB.", err)
		return apperror.NewDBError("failed to delete password reset token", err)
	}
	return nil
}
