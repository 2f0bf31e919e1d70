// Package serialization renders configuration values for diagnostic output with secrets masked.
package serialization

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
)

const moduleName = "serialization"

// Mask replaces the value of a secret key.
const Mask = "********"

// DefaultMaskedKeys are the yaml keys whose values never reach the logs.
var DefaultMaskedKeys = []string{"password", "api_key"}

// MarshalMasked renders v as YAML, replacing every non-empty value stored under
// one of maskedKeys (case-insensitive, at any depth) with Mask.
// DefaultMaskedKeys is used when maskedKeys is empty.
func MarshalMasked(v interface{}, maskedKeys ...string) ([]byte, error) {
	if len(maskedKeys) == 0 {
		maskedKeys = DefaultMaskedKeys
	}
	keys := make(map[string]struct{}, len(maskedKeys))
	for _, k := range maskedKeys {
		keys[strings.ToLower(k)] = struct{}{}
	}

	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to serialize value", err, false)
	}
	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to re-read serialized value", err, false)
	}
	masked, err := yaml.Marshal(maskTree(tree, keys))
	if err != nil {
		return nil, exception.NewBatchError(exception.ErrConfiguration, moduleName, "failed to serialize masked value", err, false)
	}
	return masked, nil
}

func maskTree(node interface{}, keys map[string]struct{}) interface{} {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			if _, secret := keys[strings.ToLower(k)]; secret {
				if s, ok := v.(string); !ok || s != "" {
					n[k] = Mask
				}
				continue
			}
			n[k] = maskTree(v, keys)
		}
		return n
	case []interface{}:
		for i, v := range n {
			n[i] = maskTree(v, keys)
		}
		return n
	default:
		return node
	}
}
