package bannerservice

import (
	"context"
	"io"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/logger"
)

// MaxImageSize é o tamanho máximo da imagem de um banner (2 MB).
const MaxImageSize = 2 << 20

var imageRule = assets.ImageRule{
	Field:   "imagen",
	MaxSize: MaxImageSize,
	Types:   []string{"image/jpeg", "image/png", "image/gif"},
	Label:   "jpeg, png, jpg, gif",
}

// AssetStore é o subconjunto do assets.Manager usado pelo serviço de banners.
type AssetStore interface {
	Store(ctx context.Context, dir, filename string, content io.Reader) (string, error)
	Replace(ctx context.Context, dir, previous, filename string, content io.Reader) (string, error)
	Delete(ctx context.Context, p string)
}

// Validator valida os DTOs de entrada.
type Validator interface {
	Struct(s interface{}) error
}

// Service implementa as regras de negócio dos banners.
type Service struct {
	repo      domain.BannerRepository
	assets    AssetStore
	validator Validator
	logger    logger.Logger
}

// NewService cria uma nova instância do serviço de banners.
func NewService(repo domain.BannerRepository, assetStore AssetStore, v Validator, log logger.Logger) *Service {
	return &Service{repo: repo, assets: assetStore, validator: v, logger: log}
}

func authorize(caller domain.Caller) error {
	if !caller.Authenticated() {
		return apperror.NewUnauthorizedError("No autorizado")
	}
	if !caller.CanManageSite() {
		return apperror.NewForbiddenError("Acceso denegado: No tienes permisos para gestionar los banners")
	}
	return nil
}

// ListActive devolve os banners ativos, ordenados (rota pública).
func (s *Service) ListActive(ctx context.Context) ([]domain.Banner, error) {
	return s.repo.FindAll(ctx, true)
}

// Get devolve um banner (rota pública).
func (s *Service) Get(ctx context.Context, id int64) (domain.Banner, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAll devolve todos os banners, inclusive inativos, para o painel.
func (s *Service) ListAll(ctx context.Context, caller domain.Caller) ([]domain.Banner, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, false)
}

// Create valida o payload, grava a imagem e insere o banner.
func (s *Service) Create(ctx context.Context, caller domain.Caller, input domain.BannerInput) (domain.Banner, error) {
	if err := authorize(caller); err != nil {
		return domain.Banner{}, err
	}
	if err := s.validator.Struct(input); err != nil {
		return domain.Banner{}, err
	}

	content, err := imageRule.Check(input.Imagen)
	if err != nil {
		return domain.Banner{}, err
	}

	imagePath, err := s.assets.Store(ctx, assets.BannerDir, input.Imagen.Filename, content)
	if err != nil {
		return domain.Banner{}, err
	}

	banner := domain.Banner{
		Titulo:      input.Titulo,
		Descripcion: input.Descripcion,
		Imagen:      imagePath,
		TextoBoton:  input.TextoBoton,
		EnlaceBoton: input.EnlaceBoton,
		Orden:       input.Orden,
		Activo:      true,
	}
	if input.Activo != nil {
		banner.Activo = *input.Activo
	}

	saved, err := s.repo.Save(ctx, banner)
	if err != nil {
		// A linha não existe: o arquivo recém-gravado ficaria órfão.
		s.assets.Delete(ctx, imagePath)
		return domain.Banner{}, err
	}

	s.logger.Info("Banner criado.", map[string]interface{}{"banner_id": saved.ID, "user_id": caller.UserID})
	return saved, nil
}

// Update aplica uma atualização parcial. Uma nova imagem substitui a anterior.
func (s *Service) Update(ctx context.Context, caller domain.Caller, id int64, patch domain.BannerPatch) (domain.Banner, error) {
	if err := authorize(caller); err != nil {
		return domain.Banner{}, err
	}

	banner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Banner{}, err
	}

	if err := s.validator.Struct(patch); err != nil {
		return domain.Banner{}, err
	}

	if patch.Imagen != nil {
		content, err := imageRule.Check(patch.Imagen)
		if err != nil {
			return domain.Banner{}, err
		}
		imagePath, err := s.assets.Replace(ctx, assets.BannerDir, banner.Imagen, patch.Imagen.Filename, content)
		if err != nil {
			return domain.Banner{}, err
		}
		banner.Imagen = imagePath
	}

	if patch.Titulo != nil {
		banner.Titulo = *patch.Titulo
	}
	if patch.Descripcion != nil {
		banner.Descripcion = patch.Descripcion
	}
	if patch.TextoBoton != nil {
		banner.TextoBoton = *patch.TextoBoton
	}
	if patch.EnlaceBoton != nil {
		banner.EnlaceBoton = *patch.EnlaceBoton
	}
	if patch.Orden != nil {
		banner.Orden = *patch.Orden
	}
	if patch.Activo != nil {
		banner.Activo = *patch.Activo
	}

	return s.repo.Update(ctx, banner)
}

// Delete remove o banner e, em melhor esforço, a sua imagem.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	if err := authorize(caller); err != nil {
		return err
	}

	banner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.assets.Delete(ctx, banner.Imagen)

	s.logger.Info("Banner removido.", map[string]interface{}{"banner_id": id, "user_id": caller.UserID})
	return nil
}
