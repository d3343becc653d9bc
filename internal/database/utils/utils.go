package utils

import (
	"encoding/json"
	"fmt"
)

// NodeToType decodes a JSON shaped tree node into v.
func NodeToType(node interface{}, v interface{}) error {
	if node == nil {
		return fmt.Errorf("node is nil")
	}

	jsonStr, err := json.Marshal(node)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonStr, v); err != nil {
		return err
	}

	return nil
}
