package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

const userColumns = `id, name, email, password_hash, rol, profile_image, created_at, updated_at`

// uniqueViolation é o código SQLSTATE do PostgreSQL para chave única violada.
const uniqueViolation = "23505"

// UserRepository implementa a interface domain.UserRepository
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		u     domain.User
		role  string
		image sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &image, &u.CreatedAt, &u.UpdatedAt)
	u.Role = domain.UserRole(role)
	if image.Valid {
		u.ProfileImage = &image.String
	}
	return u, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Save insere um novo usuário no banco de dados.
// E-mail duplicado vira ConflictError (409).
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Prepara dados e ID
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	// 3. Executa o INSERT
	_, err := r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImage,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, apperror.NewConflictError(fmt.Sprintf("El email '%s' ya está en uso.", user.Email))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	r.logger.Debug("Iniciando FindByEmail de usuário no repositório.", map[string]interface{}{"email_attempt": email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuario con email '%s' no encontrado", email))
		}
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}
	return user, nil
}

// FindByID busca um usuário pelo id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewNotFoundError("Usuario no encontrado")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError("Usuario no encontrado")
		}
		r.logger.Error("Falha ao buscar usuário por id no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}
	return user, nil
}

// List aplica busca (nome/e-mail), filtro de papel e paginação. Mais recentes primeiro.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		conds []string
		args  []interface{}
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("rol = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("failed to count users", err)
	}

	pageArgs := append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctxTimeout, query, pageArgs...)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, apperror.NewDBError("failed to scan user row", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("failed to iterate user rows", err)
	}
	return users, total, nil
}

// Update grava nome, e-mail, hash e papel.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Update de usuário.", map[string]interface{}{"user_id": user.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE users SET name = $1, email = $2, password_hash = $3, rol = $4, updated_at = NOW()
              WHERE id = $5
              RETURNING ` + userColumns

	updated, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError("Usuario no encontrado")
		}
		if isUniqueViolation(err) {
			return domain.User{}, apperror.NewConflictError(fmt.Sprintf("El email '%s' ya está en uso.", user.Email))
		}
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to update user", err)
	}

	r.logger.Info("Usuário atualizado.", map[string]interface{}{"user_id": updated.ID})
	return updated, nil
}

// UpdateProfileImage grava apenas a coluna profile_image.
func (r *UserRepository) UpdateProfileImage(ctx context.Context, id string, path *string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewNotFoundError("Usuario no encontrado")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE users SET profile_image = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	updated, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, path, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError("Usuario no encontrado")
		}
		r.logger.Error("Falha ao atualizar imagem de perfil no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to update profile image", err)
	}

	r.logger.Info("Imagem de perfil atualizada.", map[string]interface{}{"user_id": id})
	return updated, nil
}

// Delete remove o usuário.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewNotFoundError("Usuario no encontrado")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover usuário no DB.", err)
		return apperror.NewDBError("failed to delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read affected rows", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError("Usuario no encontrado")
	}

	r.logger.Info("Usuário removido.", map[string]interface{}{"user_id": id})
	return nil
}
