// Package valuecodec converte o valor bruto (string) de uma configuração
// no valor tipado apresentado ao frontend, e vice-versa.
package valuecodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
)

// Decode interpreta raw segundo o tipo. Apenas "json" pode falhar, com *apperror.DecodeError.
func Decode(tipo domain.ValueType, raw string) (any, error) {
	switch tipo.Normalized() {
	case domain.TypeJSON:
		v, err := UnmarshalJSON([]byte(raw))
		if err != nil {
			return nil, &apperror.DecodeError{Tipo: string(tipo), Raw: raw, Err: err}
		}
		return v, nil
	case domain.TypeBoolean:
		return DecodeBool(raw), nil
	case domain.TypeNumber:
		return DecodeInt(raw), nil
	default:
		// texto, color, imagen e tipos desconhecidos: identidade
		return raw, nil
	}
}

// ErrNumberRange indica um número que não cabe em int64 ou não é inteiro.
var ErrNumberRange = errors.New("valuecodec: número fora do intervalo de int64 ou não inteiro")

// UnmarshalJSON decodifica um documento JSON completo preservando números como
// json.Number, sem passar por float64.
func UnmarshalJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("valuecodec: dados após o documento JSON")
	}
	return v, nil
}

// DecodeOrRaw decodifica raw e, em caso de falha, devolve a própria string.
// Uma linha corrompida nunca derruba uma listagem.
func DecodeOrRaw(tipo domain.ValueType, raw string) any {
	v, err := Decode(tipo, raw)
	if err != nil {
		return raw
	}
	return v
}

// DecodeBool: "" e "0" são falsos, qualquer outra string é verdadeira.
func DecodeBool(raw string) bool {
	return raw != "" && raw != "0"
}

// DecodeInt faz o parse permissivo da parte inteira inicial de raw.
// Entradas não numéricas ou fora do intervalo de int64 viram 0.
func DecodeInt(raw string) int64 {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Encode converte um valor recebido no payload para a forma bruta persistida.
func Encode(tipo domain.ValueType, input any) (string, error) {
	switch tipo.Normalized() {
	case domain.TypeJSON:
		b, err := json.Marshal(input)
		if err != nil {
			return "", fmt.Errorf("valuecodec: serializar json: %w", err)
		}
		return string(b), nil
	case domain.TypeBoolean:
		switch v := input.(type) {
		case bool:
			return EncodeBool(v), nil
		case float64:
			return EncodeBool(v != 0), nil
		case json.Number:
			f, err := v.Float64()
			return EncodeBool(err != nil || f != 0), nil
		case nil:
			return "0", nil
		}
	case domain.TypeNumber:
		switch v := input.(type) {
		case float64:
			return encodeFloat(v)
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return strconv.FormatInt(n, 10), nil
			}
			// 1e3 é um inteiro válido escrito em notação exponencial.
			f, err := v.Float64()
			if err != nil {
				return "", ErrNumberRange
			}
			return encodeFloat(f)
		}
	}
	return stringify(input)
}

// FromInput converte o "valor" de um payload JSON em valor bruto.
// Strings já são o valor bruto e passam sem alteração; os demais tipos são
// serializados com Encode conforme o tipo da configuração.
func FromInput(tipo domain.ValueType, input any) (string, error) {
	if s, ok := input.(string); ok {
		return s, nil
	}
	return Encode(tipo, input)
}

// encodeFloat aceita apenas inteiros representáveis em int64.
func encodeFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", ErrNumberRange
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return "", ErrNumberRange
	}
	return strconv.FormatInt(int64(f), 10), nil
}

// EncodeBool serializa um booleano como "1"/"0".
func EncodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func stringify(input any) (string, error) {
	switch v := input.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return EncodeBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("valuecodec: serializar valor: %w", err)
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}
