// Package carrier contains the outbound API adapters for the supported
// shipping providers. Each adapter is a thin HTTP client that translates
// between the shipping domain model and one provider's wire format.
package carrier

import (
	"bytes"
	"encoding/json"
)

// OneOrMany decodes JSON fields that carriers serialize as a bare object
// when there is one element and as an array when there are several. UPS
// RatedShipment and PackageResults both behave this way.
type OneOrMany[T any] []T

// UnmarshalJSON accepts either a single JSON object or an array of them.
func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}

	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*m = many
		return nil
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*m = OneOrMany[T]{one}
	return nil
}

// MarshalJSON always emits an array so round-tripped payloads stay stable.
func (m OneOrMany[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]T(m))
}
