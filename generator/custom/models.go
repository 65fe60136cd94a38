package custom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\[\])?$`)

// ExtractModelIds pulls model identifiers out of a models-endpoint response
// using a restricted path such as "data[].id" or "models[].name": plain
// object fields, with "[]" marking descent into an array. Unsupported path
// shapes and non-string leaves yield an error so callers fail closed with an
// empty list instead of guessing at the payload.
func ExtractModelIds(body []byte, path string) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	gjsonPath, err := translatePath(path)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, gjsonPath)
	if !result.Exists() {
		return nil, nil
	}

	var ids []string

	collect := func(value gjson.Result) error {
		if value.Type != gjson.String {
			return fmt.Errorf("path %q resolved to %s, want string", path, value.Type)
		}
		if len(strings.TrimSpace(value.String())) > 0 {
			ids = append(ids, value.String())
		}
		return nil
	}

	if result.IsArray() {
		for _, value := range result.Array() {
			if err := collect(value); err != nil {
				return nil, err
			}
		}
		return ids, nil
	}

	if err := collect(result); err != nil {
		return nil, err
	}

	return ids, nil
}

// translatePath converts "data[].id" into the gjson query "data.#.id",
// rejecting anything outside the supported shapes.
func translatePath(path string) (string, error) {
	if len(strings.TrimSpace(path)) == 0 {
		return "", fmt.Errorf("models path is empty")
	}

	parts := strings.Split(path, ".")
	translated := make([]string, 0, len(parts))

	for _, part := range parts {
		if !segmentPattern.MatchString(part) {
			return "", fmt.Errorf("unsupported models path segment: %q", part)
		}
		if strings.HasSuffix(part, "[]") {
			translated = append(translated, strings.TrimSuffix(part, "[]"), "#")
			continue
		}
		translated = append(translated, part)
	}

	// a trailing "[]" means the array itself holds the ids; gjson's "#"
	// would count the elements instead of returning them
	if translated[len(translated)-1] == "#" {
		translated = translated[:len(translated)-1]
	}

	return strings.Join(translated, "."), nil
}
