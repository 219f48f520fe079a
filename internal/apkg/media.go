package apkg

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const mediaEntry = "media"

// parseMedia decodes the media index: a JSON object from stringified integer
// keys (the archive entry names of media files) to their original file names.
func parseMedia(data []byte) (map[string]string, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode media index: %w", err)
	}
	for key := range raw {
		if _, err := strconv.Atoi(key); err != nil {
			return nil, fmt.Errorf("media index key %q is not an integer", key)
		}
	}
	if raw == nil {
		raw = map[string]string{}
	}
	return raw, nil
}
