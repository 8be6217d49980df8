package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// ValueType é o discriminador que define como o valor bruto de uma configuração é interpretado.
type ValueType string

// Tipos persistidos na coluna "tipo" (mesmos valores usados pelos seeds).
const (
	TypeText    ValueType = "texto"
	TypeNumber  ValueType = "numero"
	TypeBoolean ValueType = "booleano"
	TypeJSON    ValueType = "json"
	TypeColor   ValueType = "color"
	TypeImage   ValueType = "imagen"
)

var valueTypeAliases = map[string]ValueType{
	"texto":    TypeText,
	"text":     TypeText,
	"numero":   TypeNumber,
	"number":   TypeNumber,
	"booleano": TypeBoolean,
	"boolean":  TypeBoolean,
	"json":     TypeJSON,
	"color":    TypeColor,
	"imagen":   TypeImage,
	"image":    TypeImage,
}

// ParseValueType normaliza um tipo (aceita os aliases em inglês).
// O segundo retorno é false para tipos desconhecidos.
func ParseValueType(s string) (ValueType, bool) {
	t, ok := valueTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Normalized retorna o tipo canônico, ou o próprio valor se for desconhecido.
func (t ValueType) Normalized() ValueType {
	if n, ok := ParseValueType(string(t)); ok {
		return n
	}
	return t
}

// IsImage informa se o tipo referencia um asset binário.
func (t ValueType) IsImage() bool {
	return t.Normalized() == TypeImage
}

// ConfigEntry representa uma linha da tabela configuraciones.
type ConfigEntry struct {
	ID          int64     `json:"id"`
	Clave       string    `json:"clave"`
	Valor       string    `json:"valor"`
	Tipo        ValueType `json:"tipo"`
	Descripcion *string   `json:"descripcion"`
	Grupo       string    `json:"grupo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValueUpdate é um item da atualização em lote. Valor é o valor recebido no payload
// (qualquer valor JSON) e é convertido para a forma bruta conforme o tipo da entrada.
type ValueUpdate struct {
	ID    int64 `json:"id"`
	Valor any   `json:"valor"`
}

// Upload representa um arquivo recebido via multipart.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ValueInput é o payload de atualização de uma configuração: valor e/ou arquivo.
// Valor nil significa "não informado".
type ValueInput struct {
	Valor   any
	Archivo *Upload
}

// MaxConfigUploadSize é o tamanho máximo de um arquivo enviado para uma configuração (10 MB).
const MaxConfigUploadSize = 10 << 20

// ConfigRepository é a interface que a camada de Repositório deve implementar para configuraciones.
type ConfigRepository interface {
	FindByKey(ctx context.Context, clave string) (ConfigEntry, error)
	FindByID(ctx context.Context, id int64) (ConfigEntry, error)
	// FindAll devolve as entradas em ordem de inserção; grupo vazio devolve todas.
	FindAll(ctx context.Context, grupo string) ([]ConfigEntry, error)
	// DistinctGroups devolve os grupos na ordem em que aparecem pela primeira vez.
	DistinctGroups(ctx context.Context) ([]string, error)
	UpdateValue(ctx context.Context, id int64, valor string) (ConfigEntry, error)
	// FindByIDs devolve as entradas existentes entre os ids informados, indexadas por id.
	FindByIDs(ctx context.Context, ids []int64) (map[int64]ConfigEntry, error)
}
