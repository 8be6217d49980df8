package domain

import (
	"context"
	"time"
)

// Banner representa um slide do carrossel da página inicial.
type Banner struct {
	ID          int64     `json:"id"`
	Titulo      string    `json:"titulo"`
	Descripcion *string   `json:"descripcion"`
	Imagen      string    `json:"imagen"`
	TextoBoton  string    `json:"texto_boton"`
	EnlaceBoton string    `json:"enlace_boton"`
	Orden       int       `json:"orden"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BannerInput é o payload de criação de um banner.
type BannerInput struct {
	Titulo      string  `json:"titulo" validate:"required,max=150"`
	Descripcion *string `json:"descripcion"`
	TextoBoton  string  `json:"texto_boton" validate:"required,max=50"`
	EnlaceBoton string  `json:"enlace_boton" validate:"required"`
	Orden       int     `json:"orden" validate:"min=0"`
	Activo      *bool   `json:"activo"`
	Imagen      *Upload `json:"imagen" validate:"required"`
}

// BannerPatch é o payload de atualização parcial: campos nil não são alterados.
type BannerPatch struct {
	Titulo      *string `json:"titulo" validate:"omitnil,min=1,max=150"`
	Descripcion *string `json:"descripcion"`
	TextoBoton  *string `json:"texto_boton" validate:"omitnil,min=1,max=50"`
	EnlaceBoton *string `json:"enlace_boton" validate:"omitnil,min=1"`
	Orden       *int    `json:"orden" validate:"omitnil,min=0"`
	Activo      *bool   `json:"activo"`
	Imagen      *Upload `json:"imagen"`
}

// BannerRepository é a interface que a camada de Repositório deve implementar para banners.
type BannerRepository interface {
	Save(ctx context.Context, banner Banner) (Banner, error)
	FindByID(ctx context.Context, id int64) (Banner, error)
	// FindAll devolve os banners ordenados por orden; onlyActive filtra os inativos.
	FindAll(ctx context.Context, onlyActive bool) ([]Banner, error)
	Update(ctx context.Context, banner Banner) (Banner, error)
	Delete(ctx context.Context, id int64) error
}
