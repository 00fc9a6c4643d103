package validation

import (
	"encoding/json"
	"fmt"
)

// MaxMemoSize is the maximum accepted size of a memo blob in bytes.
const MaxMemoSize = 100 * 1024

// ValidateMemo checks that a memo (or step notes) blob is a JSON object with
// a string "text" field and does not exceed MaxMemoSize.
func ValidateMemo(memo string) error {
	if memo == "" {
		return fmt.Errorf("memo cannot be empty")
	}

	if len(memo) > MaxMemoSize {
		return fmt.Errorf("memo exceeds maximum size of %d bytes", MaxMemoSize)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(memo), &parsed); err != nil {
		return fmt.Errorf("memo must be a JSON object")
	}

	text, ok := parsed["text"]
	if !ok {
		return fmt.Errorf("memo must have a \"text\" field of type string")
	}

	var s string
	if err := json.Unmarshal(text, &s); err != nil {
		return fmt.Errorf("memo must have a \"text\" field of type string")
	}

	return nil
}
