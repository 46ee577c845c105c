package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Envelope errors.
var (
	ErrUnknownKind = errors.New("unknown command kind")
	ErrBadEnvelope = errors.New("malformed command envelope")
)

var (
	kindsMu sync.RWMutex
	kinds   = make(map[string]reflect.Type)
	kindOf  = make(map[reflect.Type]string)
)

func init() {
	RegisterKind("recorded", &Recorded{})
}

// RegisterKind makes commands of proto's type encodable under kind.
// proto must be a pointer to a struct whose exported fields hold the
// command's state. Registering a kind or a type twice panics.
func RegisterKind(kind string, proto Command) {
	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("history: RegisterKind(%q): %T is not a pointer to a struct", kind, proto))
	}

	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, ok := kinds[kind]; ok {
		panic(fmt.Sprintf("history: kind %q registered twice", kind))
	}
	if prev, ok := kindOf[t]; ok {
		panic(fmt.Sprintf("history: %T already registered as %q", proto, prev))
	}
	kinds[kind] = t
	kindOf[t] = kind
}

// KindOf returns the registered kind of cmd.
func KindOf(cmd Command) (string, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kindOf[reflect.TypeOf(cmd)]
	return k, ok
}

// Encode returns cmd as {"kind": ..., "data": ...}.
func Encode(cmd Command) (json.RawMessage, error) {
	kind, ok := KindOf(cmd)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, cmd)
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	out, err := sjson.SetBytes([]byte(`{}`), "kind", kind)
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetRawBytes(out, "data", data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reverses Encode.
func Decode(raw []byte) (Command, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrBadEnvelope)
	}
	env := gjson.ParseBytes(raw)
	kind := env.Get("kind")
	if kind.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing kind", ErrBadEnvelope)
	}

	kindsMu.RLock()
	t, ok := kinds[kind.Str]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind.Str)
	}

	v := reflect.New(t.Elem())
	if data := env.Get("data"); data.Exists() {
		if err := json.Unmarshal([]byte(data.Raw), v.Interface()); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind.Str, err)
		}
	}
	return v.Interface().(Command), nil
}

// List is a sequence of commands that encodes each element as an
// envelope.
type List []Command

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, len(l))
	for i, cmd := range l {
		raw, err := Encode(cmd)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		raws[i] = raw
	}
	return json.Marshal(raws)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid JSON", ErrBadEnvelope)
	}
	arr := gjson.ParseBytes(data)
	if arr.Type == gjson.Null {
		*l = nil
		return nil
	}
	if !arr.IsArray() {
		return fmt.Errorf("%w: command list is not an array", ErrBadEnvelope)
	}

	var out List
	var err error
	arr.ForEach(func(_, item gjson.Result) bool {
		var cmd Command
		cmd, err = Decode([]byte(item.Raw))
		if err != nil {
			err = fmt.Errorf("command %d: %w", len(out), err)
			return false
		}
		out = append(out, cmd)
		return true
	})
	if err != nil {
		return err
	}
	*l = out
	return nil
}
