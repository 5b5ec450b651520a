package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func buildRawOutbound(b *repository.ConfigBean) (map[string]any, error) {
	return DecodeObject(b.Content)
}

// DecodeObject parses a JSON object keeping numbers as json.Number so they
// re-encode unchanged.
func DecodeObject(content string) (map[string]any, error) {
	if !gjson.Valid(content) || !gjson.Parse(content).IsObject() {
		return nil, ErrInvalidRawConfig
	}
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRawConfig, err)
	}
	return out, nil
}
