package entities

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateTimeLayout string = "2006-01-02T15:04:05.9999999"
)

var dateTimeLayouts = []string{
	dateTimeLayout,
	"2006-01-02T15:04",
	time.RFC3339Nano,
	"2006-01-02",
}

// Coerce converts v into the Go type used for values of the given EDM type:
// string, int64, bool, decimal.Decimal, float64, uuid.UUID, time.Time or
// []byte. Types the client does not model (complex types, Edm.Time, ...) are
// kept as strings.
func Coerce(p metadata.Property, v any) (any, error) {
	if v == nil {
		if !p.Nullable {
			return nil, errors.NewInvalidValueError(fmt.Sprintf("property %s is not nullable", p.Name))
		}
		return nil, nil
	}

	var result any
	var err error

	switch p.Type {
	case metadata.EdmString:
		result, err = toString(v)
	case metadata.EdmByte, metadata.EdmSByte, metadata.EdmInt16, metadata.EdmInt32, metadata.EdmInt64:
		result, err = toInteger(p.Type, v)
	case metadata.EdmBoolean:
		result, err = toBool(v)
	case metadata.EdmDecimal:
		result, err = toDecimal(v)
	case metadata.EdmDouble, metadata.EdmSingle:
		result, err = toFloat(v)
	case metadata.EdmGuid:
		result, err = toGuid(v)
	case metadata.EdmDateTime, metadata.EdmDateTimeOffset:
		result, err = toTime(v)
	case metadata.EdmBinary:
		result, err = toBinary(v)
	default:
		result, err = toString(v)
	}

	if err != nil {
		return nil, errors.NewInvalidValueError(fmt.Sprintf("cannot use %v (%T) as %s for property %s: %s", v, v, p.Type, p.Name, err.Error()))
	}

	return result, nil
}

// FromWire coerces a decoded wire value. Values flagged null are nil
// regardless of the declared nullability.
func FromWire(p metadata.Property, v codec.Value) (any, error) {
	if v.Null {
		return nil, nil
	}

	if p.Type == metadata.EdmString || p.Complex {
		return v.Text, nil
	}

	return Coerce(p, strings.TrimSpace(v.Text))
}

// ToWire formats a coerced value the way it is written in a payload
func ToWire(p metadata.Property, v any) codec.Value {
	if v == nil {
		return codec.Value{Type: p.Type, Null: true}
	}

	return codec.Value{Type: p.Type, Text: format(p.Type, v)}
}

// FormatKeyLiteral renders v as a key literal for use inside the parentheses
// of a resource path. Strings are quoted and path escaped between the quotes.
func FormatKeyLiteral(p metadata.Property, v any) (string, error) {
	if v == nil {
		return "", errors.NewInvalidKeyError(fmt.Sprintf("key property %s has no value", p.Name))
	}

	coerced, err := Coerce(p, v)
	if err != nil {
		return "", errors.NewInvalidKeyError(err.Error())
	}

	text := format(p.Type, coerced)

	switch p.Type {
	case metadata.EdmByte, metadata.EdmSByte, metadata.EdmInt16, metadata.EdmInt32, metadata.EdmBoolean:
		return text, nil
	case metadata.EdmInt64:
		return text + "L", nil
	case metadata.EdmDecimal:
		return text + "M", nil
	case metadata.EdmDouble:
		return text + "d", nil
	case metadata.EdmSingle:
		return text + "f", nil
	case metadata.EdmGuid:
		return "guid'" + text + "'", nil
	case metadata.EdmDateTime:
		return "datetime'" + url.PathEscape(text) + "'", nil
	case metadata.EdmDateTimeOffset:
		return "datetimeoffset'" + url.PathEscape(text) + "'", nil
	case metadata.EdmBinary:
		return "X'" + strings.ToUpper(hex.EncodeToString(coerced.([]byte))) + "'", nil
	case metadata.EdmTime:
		return "time'" + url.PathEscape(text) + "'", nil
	}

	return quote(text), nil
}

func quote(s string) string {
	return "'" + url.PathEscape(strings.ReplaceAll(s, "'", "''")) + "'"
}

func format(edmType string, v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case decimal.Decimal:
		return val.String()
	case float64:
		if edmType == metadata.EdmSingle {
			return strconv.FormatFloat(val, 'f', -1, 32)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case uuid.UUID:
		return val.String()
	case time.Time:
		if edmType == metadata.EdmDateTimeOffset {
			return val.Format(time.RFC3339Nano)
		}
		return val.UTC().Format(dateTimeLayout)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	}

	return fmt.Sprint(v)
}

func toString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	return "", fmt.Errorf("unsupported type")
}

func toInteger(edmType string, v any) (int64, error) {
	var i int64

	switch val := v.(type) {
	case int:
		i = int64(val)
	case int8:
		i = int64(val)
	case int16:
		i = int64(val)
	case int32:
		i = int64(val)
	case int64:
		i = val
	case uint:
		i = int64(val)
	case uint8:
		i = int64(val)
	case uint16:
		i = int64(val)
	case uint32:
		i = int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return 0, fmt.Errorf("out of range")
		}
		i = int64(val)
	case float32:
		return toInteger(edmType, float64(val))
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return 0, fmt.Errorf("not an integral number")
		}
		i = int64(val)
	case decimal.Decimal:
		if !val.IsInteger() {
			return 0, fmt.Errorf("not an integral number")
		}
		i = val.IntPart()
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSuffix(val, "L"), "l"), 10, 64)
		if err != nil {
			return 0, err
		}
		i = parsed
	default:
		return 0, fmt.Errorf("unsupported type")
	}

	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	switch edmType {
	case metadata.EdmByte:
		lo, hi = 0, math.MaxUint8
	case metadata.EdmSByte:
		lo, hi = math.MinInt8, math.MaxInt8
	case metadata.EdmInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case metadata.EdmInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	}

	if i < lo || i > hi {
		return 0, fmt.Errorf("out of range")
	}

	return i, nil
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return strconv.ParseBool(val)
	}

	return false, fmt.Errorf("unsupported type")
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case string:
		return decimal.NewFromString(strings.TrimSuffix(strings.TrimSuffix(val, "M"), "m"))
	case float32:
		return decimal.NewFromFloat32(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := toInteger(metadata.EdmInt64, val)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(i), nil
	}

	return decimal.Decimal{}, fmt.Errorf("unsupported type")
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case decimal.Decimal:
		return val.InexactFloat64(), nil
	case string:
		return strconv.ParseFloat(strings.TrimRight(val, "dDfF"), 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := toInteger(metadata.EdmInt64, val)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}

	return 0, fmt.Errorf("unsupported type")
}

func toGuid(v any) (uuid.UUID, error) {
	switch val := v.(type) {
	case uuid.UUID:
		return val, nil
	case [16]byte:
		return uuid.UUID(val), nil
	case string:
		return uuid.Parse(val)
	}

	return uuid.Nil, fmt.Errorf("unsupported type")
}

func toTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range dateTimeLayouts {
			t, err := time.Parse(layout, val)
			if err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date time format")
	}

	return time.Time{}, fmt.Errorf("unsupported type")
}

func toBinary(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return base64.StdEncoding.DecodeString(val)
	}

	return nil, fmt.Errorf("unsupported type")
}
