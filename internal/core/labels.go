package core

import (
	"encoding/json"
	"fmt"
)

func (i Importance) MarshalJSON() ([]byte, error) {
	return marshalLabel("importance", importanceLabels, int(i))
}

func (i *Importance) UnmarshalJSON(b []byte) error {
	v, err := unmarshalLabel("importance", importanceLabels, b)
	if err != nil {
		return err
	}
	*i = Importance(v)
	return nil
}

func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return marshalLabel("status", statusLabels, int(s))
}

func (s *CheckStatus) UnmarshalJSON(b []byte) error {
	v, err := unmarshalLabel("status", statusLabels, b)
	if err != nil {
		return err
	}
	*s = CheckStatus(v)
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	return marshalLabel("category", categoryLabels, int(c))
}

func (c *Category) UnmarshalJSON(b []byte) error {
	v, err := unmarshalLabel("category", categoryLabels, b)
	if err != nil {
		return err
	}
	*c = Category(v)
	return nil
}

// ParseCategory maps a wire label or an English name (account, service,
// security, patch) to a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "account":
		return CategoryAccount, nil
	case "service":
		return CategoryService, nil
	case "security":
		return CategorySecurity, nil
	case "patch":
		return CategoryPatch, nil
	}
	for i, l := range categoryLabels {
		if i > 0 && l == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func marshalLabel(kind string, labels []string, i int) ([]byte, error) {
	l := label(labels, i)
	if l == "" {
		return nil, fmt.Errorf("cannot encode %s %d", kind, i)
	}
	return json.Marshal(l)
}

func unmarshalLabel(kind string, labels []string, b []byte) (int, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, fmt.Errorf("decode %s: %w", kind, err)
	}
	for i, l := range labels {
		if i > 0 && l == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s label %q", kind, s)
}
