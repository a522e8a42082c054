package dataset

import (
	"embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed fallback/*.yaml
var fallbackFS embed.FS

// Fallback returns the embedded rows registered under name, or nil when the
// dataset has none.
func Fallback[T Row](name string) ([]T, error) {
	data, err := fallbackFS.ReadFile("fallback/" + name + ".yaml")
	if err != nil {
		return nil, nil
	}
	var rows []T
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "dataset: decode fallback %s", name)
	}
	valid := rows[:0]
	for i := range rows {
		if n, ok := any(&rows[i]).(normalizer); ok {
			n.normalize()
		}
		if rows[i].Valid() {
			valid = append(valid, rows[i])
		}
	}
	return valid, nil
}
