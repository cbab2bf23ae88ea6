package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/core"
)

// instanceKey is everything that makes two adapter instances differ.
type instanceKey struct {
	Checker   int            `json:"checker"`
	Overrides []int          `json:"overrides"`
	Linter    string         `json:"linter"`
	Fix       bool           `json:"fix"`
	Level     core.Level     `json:"level"`
	Options   map[string]any `json:"options"`
}

// fingerprint hashes the resolved configuration of one linter reached via
// the given checker and override indices. Option maps are encoded with
// sorted keys, so equal trees hash equally.
func fingerprint(checker int, overrides []int, lc config.LinterConfig) string {
	key := instanceKey{
		Checker:   checker,
		Overrides: overrides,
		Linter:    lc.Linter,
		Fix:       lc.FixEnabled(),
		Level:     lc.Threshold(),
		Options:   lc.Options,
	}
	if len(key.Options) == 0 {
		key.Options = nil
	}

	data, err := json.Marshal(key)
	if err != nil {
		// Values JSON cannot encode; fmt also prints maps in key order.
		data = []byte(fmt.Sprintf("%#v", key))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
