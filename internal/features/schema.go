package features

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a row does not carry the columns a
// trained schema expects.
var ErrSchemaMismatch = errors.New("schema mismatch")

// CategoricalColumn is a one-hot encoded column with its trained categories.
type CategoricalColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Schema is the trained column transform: numeric columns pass through in
// order, then each categorical column expands to one indicator per trained
// category. Values never seen in training encode as all zeros.
type Schema struct {
	Numeric     []string            `json:"numeric"`
	Categorical []CategoricalColumn `json:"categorical"`
}

// Width is the length of the transformed vector.
func (s Schema) Width() int {
	n := len(s.Numeric)
	for _, c := range s.Categorical {
		n += len(c.Categories)
	}
	return n
}

// Columns lists every input column the schema consumes.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Numeric)+len(s.Categorical))
	cols = append(cols, s.Numeric...)
	for _, c := range s.Categorical {
		cols = append(cols, c.Name)
	}
	return cols
}

// Validate rejects empty schemas and duplicate column names.
func (s Schema) Validate() error {
	if len(s.Numeric)+len(s.Categorical) == 0 {
		return errors.New("schema has no columns")
	}
	seen := make(map[string]bool)
	for _, name := range s.Columns() {
		if name == "" {
			return errors.New("schema has an unnamed column")
		}
		if seen[name] {
			return fmt.Errorf("column %q declared twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Transform maps row onto the schema's vector layout. Columns present in
// the row but unknown to the schema are dropped.
func (s Schema) Transform(row Row) ([]float64, error) {
	out := make([]float64, 0, s.Width())

	for _, name := range s.Numeric {
		c, ok := row.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: missing numeric column %q", ErrSchemaMismatch, name)
		}
		if c.Kind != Numeric {
			return nil, fmt.Errorf("%w: column %q is %s, want numeric", ErrSchemaMismatch, name, c.Kind)
		}
		out = append(out, c.Num)
	}

	for _, col := range s.Categorical {
		c, ok := row.Lookup(col.Name)
		if !ok {
			return nil, fmt.Errorf("%w: missing categorical column %q", ErrSchemaMismatch, col.Name)
		}
		if c.Kind != Categorical {
			return nil, fmt.Errorf("%w: column %q is %s, want categorical", ErrSchemaMismatch, col.Name, c.Kind)
		}
		out = append(out, OneHot(col.Categories, c.Label)...)
	}
	return out, nil
}

// OneHot returns the indicator block for value. Unseen values yield a block
// of zeros.
func OneHot(categories []string, value string) []float64 {
	block := make([]float64, len(categories))
	for i, cat := range categories {
		if cat == value {
			block[i] = 1
			break
		}
	}
	return block
}
