package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// TagSetVar is the tag of the set_var command.
const TagSetVar = "set_var"

type setVarPayload struct {
	Key   string          `json:"key" validate:"required"`
	Value json.RawMessage `json:"value"`
}

// SetVarCommand stores a value in the session variables. Strings are
// expanded before they are stored; integers and booleans are stored as is.
// The key itself is never expanded. It runs for every action.
type SetVarCommand struct{}

// Execute implements Command.
func (SetVarCommand) Execute(_ context.Context, s *Session, payload json.RawMessage, _ ActionType) (bool, error) {
	var p setVarPayload
	if err := DecodePayload(s, TagSetVar, payload, &p); err != nil {
		return false, err
	}

	value, err := decodeVarValue(p.Value)
	if err != nil {
		return false, NewConfigurationError(fmt.Sprintf("invalid value for variable %q", p.Key), err).
			WithTag(TagSetVar).
			WithCode(ErrCodeInvalidPayload)
	}
	if str, ok := value.(string); ok {
		value = s.Expand(str)
	}

	s.Vars.Set(p.Key, value)
	s.logger.Debug().Str("key", p.Key).Interface("value", value).Msg("Set variable")
	return true, nil
}

// decodeVarValue accepts a JSON string, integer or boolean.
func decodeVarValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("value is required")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case string, bool:
		return val, nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not an integer", val)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
