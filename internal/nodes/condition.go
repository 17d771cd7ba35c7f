package nodes

import (
	"fmt"
	"strings"

	"github.com/vk/choreo/internal/ctyconv"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/wferr"
)

// evalCondition evaluates c term by term. "or" stops at the first true term
// and "and" at the first false one, so later operands need not exist.
func evalCondition(node string, c model.Condition, view Values) (bool, error) {
	combined := strings.ToLower(strings.TrimSpace(c.CombinedWith))
	switch combined {
	case "", "and":
		combined = "and"
	case "or":
	default:
		return false, wferr.Unimplemented(node, fmt.Sprintf("condition combinator %q", c.CombinedWith))
	}

	for _, term := range c.Terms {
		ok, err := evalComparison(node, term, view)
		if err != nil {
			return false, err
		}
		if combined == "or" && ok {
			return true, nil
		}
		if combined == "and" && !ok {
			return false, nil
		}
	}
	return combined == "and", nil
}

func evalComparison(node string, cmp model.Comparison, view Values) (bool, error) {
	a, err := operand(node, cmp.Data1, view)
	if err != nil {
		return false, err
	}
	b, err := operand(node, cmp.Data2, view)
	if err != nil {
		return false, err
	}

	var result bool
	switch strings.TrimSpace(cmp.Operator) {
	case "==":
		result = ctyconv.Equal(a, b)
	case "!=":
		result = !ctyconv.Equal(a, b)
	case "<":
		result = ctyconv.Compare(a, b) < 0
	case "<=":
		result = ctyconv.Compare(a, b) <= 0
	case ">":
		result = ctyconv.Compare(a, b) > 0
	case ">=":
		result = ctyconv.Compare(a, b) >= 0
	case "contains":
		result = ctyconv.Contains(a, b)
	case "startsWith":
		result = strings.HasPrefix(ctyconv.Text(a), ctyconv.Text(b))
	case "endsWith":
		result = strings.HasSuffix(ctyconv.Text(a), ctyconv.Text(b))
	default:
		return false, wferr.Unimplemented(node, fmt.Sprintf("condition operator %q", cmp.Operator))
	}
	if cmp.Negation {
		result = !result
	}
	return result, nil
}

// operand resolves a data key, or else reads a numeric, boolean or quoted
// string literal.
func operand(node, raw string, view Values) (any, error) {
	if v, ok := view[raw]; ok {
		return v, nil
	}
	s := strings.TrimSpace(raw)
	if n, err := ctyconv.Coerce(s, model.TypeNumber); err == nil {
		return n, nil
	}
	if s == "true" || s == "false" {
		return ctyconv.Coerce(s, model.TypeBoolean)
	}
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1], nil
		}
	}
	return nil, wferr.MissingInput(node, raw)
}
