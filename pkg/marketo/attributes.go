package marketo

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"time"
)

// AttributeType is the wire type tag of a lead attribute.
type AttributeType string

const (
	TypeString   AttributeType = "string"
	TypeInteger  AttributeType = "integer"
	TypeBoolean  AttributeType = "boolean"
	TypeFloat    AttributeType = "float"
	TypeDate     AttributeType = "date"
	TypeDateTime AttributeType = "datetime"
)

// dateTimeLayout is how time.Time attribute values are written.
const dateTimeLayout = time.RFC3339

// ParseAttributeType maps a wire tag to an AttributeType. Unknown tags are
// treated as strings.
func ParseAttributeType(s string) AttributeType {
	switch t := AttributeType(s); t {
	case TypeString, TypeInteger, TypeBoolean, TypeFloat, TypeDate, TypeDateTime:
		return t
	default:
		return TypeString
	}
}

// InferType returns the type tag and wire value for a Go value.
func InferType(value any) (string, AttributeType) {
	switch v := value.(type) {
	case nil:
		return "", TypeString
	case string:
		return v, TypeString
	case bool:
		return strconv.FormatBool(v), TypeBoolean
	case int:
		return strconv.FormatInt(int64(v), 10), TypeInteger
	case int8:
		return strconv.FormatInt(int64(v), 10), TypeInteger
	case int16:
		return strconv.FormatInt(int64(v), 10), TypeInteger
	case int32:
		return strconv.FormatInt(int64(v), 10), TypeInteger
	case int64:
		return strconv.FormatInt(v, 10), TypeInteger
	case uint:
		return strconv.FormatUint(uint64(v), 10), TypeInteger
	case uint8:
		return strconv.FormatUint(uint64(v), 10), TypeInteger
	case uint16:
		return strconv.FormatUint(uint64(v), 10), TypeInteger
	case uint32:
		return strconv.FormatUint(uint64(v), 10), TypeInteger
	case uint64:
		return strconv.FormatUint(v, 10), TypeInteger
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), TypeFloat
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), TypeFloat
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return v.String(), TypeInteger
		}
		return v.String(), TypeFloat
	case time.Time:
		return v.Format(dateTimeLayout), TypeDateTime
	case fmt.Stringer:
		return v.String(), TypeString
	default:
		return fmt.Sprint(v), TypeString
	}
}

// Attribute is one entry of an AttributeBag.
type Attribute struct {
	Name  string
	Value string
	Type  AttributeType
}

// AttributeBag is an insertion-ordered set of named attributes. The zero
// value is ready to use.
type AttributeBag struct {
	names   []string
	entries map[string]Attribute
}

// Set inserts or overwrites name, inferring its type from value. An
// overwritten attribute keeps its original position.
func (b *AttributeBag) Set(name string, value any) {
	v, t := InferType(value)
	b.SetTyped(name, v, t)
}

// SetTyped inserts or overwrites name with an explicit type tag.
func (b *AttributeBag) SetTyped(name, value string, t AttributeType) {
	if b.entries == nil {
		b.entries = make(map[string]Attribute)
	}
	if _, ok := b.entries[name]; !ok {
		b.names = append(b.names, name)
	}
	b.entries[name] = Attribute{Name: name, Value: value, Type: t}
}

// Get returns the attribute called name.
func (b *AttributeBag) Get(name string) (Attribute, bool) {
	a, ok := b.entries[name]
	return a, ok
}

// Len returns the number of attributes.
func (b *AttributeBag) Len() int {
	return len(b.names)
}

// All yields the attributes in insertion order.
func (b *AttributeBag) All() iter.Seq[Attribute] {
	return func(yield func(Attribute) bool) {
		for _, name := range b.names {
			if !yield(b.entries[name]) {
				return
			}
		}
	}
}

// Attributes returns a copy of the attributes in insertion order.
func (b *AttributeBag) Attributes() []Attribute {
	out := make([]Attribute, 0, len(b.names))
	for a := range b.All() {
		out = append(out, a)
	}
	return out
}

// wirePayload builds the attribute list elements.
func (b *AttributeBag) wirePayload() []Fields {
	list := make([]Fields, 0, b.Len())
	for a := range b.All() {
		list = append(list, Fields{
			{Name: "attrName", Value: a.Name},
			{Name: "attrType", Value: string(a.Type)},
			{Name: "attrValue", Value: a.Value},
		})
	}
	return list
}
