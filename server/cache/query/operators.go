package query

import (
	"strings"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// compileOperator turns one predicate value into a SQL fragment plus bind
// args. A plain value compiles to equality; an operator map must hold
// exactly one known operator key.
func compileOperator(column string, value any) (string, []any, error) {
	opMap, ok := value.(map[string]any)
	if !ok {
		return column + " = ?", []any{value}, nil
	}
	if len(opMap) != 1 {
		return "", nil, errors.Newf(ErrInvalidPredicate, "operator map for %s must hold exactly one operator", column)
	}

	var op string
	var operand any
	for key, val := range opMap {
		op, operand = key, val
	}

	switch strings.ToLower(op) {
	case "eq":
		return column + " = ?", []any{operand}, nil
	case "ne":
		return column + " != ?", []any{operand}, nil
	case "gt":
		return column + " > ?", []any{operand}, nil
	case "gte":
		return column + " >= ?", []any{operand}, nil
	case "lt":
		return column + " < ?", []any{operand}, nil
	case "lte":
		return column + " <= ?", []any{operand}, nil

	case "contains":
		return column + " LIKE ?", []any{"%" + stringOperand(operand) + "%"}, nil
	case "starts_with":
		return column + " LIKE ?", []any{stringOperand(operand) + "%"}, nil
	case "ends_with":
		return column + " LIKE ?", []any{"%" + stringOperand(operand)}, nil

	case "in":
		list, err := listOperand(op, operand)
		if err != nil {
			return "", nil, err
		}
		return column + " IN (" + placeholders(len(list)) + ")", list, nil
	case "not_in":
		list, err := listOperand(op, operand)
		if err != nil {
			return "", nil, err
		}
		return column + " NOT IN (" + placeholders(len(list)) + ")", list, nil

	case "between":
		bounds, ok := operand.(map[string]any)
		if !ok {
			return "", nil, errors.Newf(ErrInvalidPredicate, "between operand for %s must be {min, max}", column)
		}
		min, hasMin := bounds["min"]
		max, hasMax := bounds["max"]
		if !hasMin || !hasMax {
			return "", nil, errors.Newf(ErrInvalidPredicate, "between operand for %s must carry both min and max", column)
		}
		return column + " BETWEEN ? AND ?", []any{min, max}, nil

	case "is_null":
		return column + " IS NULL", nil, nil
	case "is_not_null":
		return column + " IS NOT NULL", nil, nil
	case "is_empty":
		return "(" + column + " IS NULL OR " + column + " = '')", nil, nil
	case "is_not_empty":
		return "(" + column + " IS NOT NULL AND " + column + " != '')", nil, nil

	case "has_any_of":
		list, err := listOperand(op, operand)
		if err != nil {
			return "", nil, err
		}
		return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value IN (" + placeholders(len(list)) + "))", list, nil
	case "has_all_of":
		list, err := listOperand(op, operand)
		if err != nil {
			return "", nil, err
		}
		clauses := make([]string, len(list))
		for i := range list {
			clauses[i] = "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = ?)"
		}
		return "(" + strings.Join(clauses, " AND ") + ")", list, nil
	case "has_none_of":
		list, err := listOperand(op, operand)
		if err != nil {
			return "", nil, err
		}
		return "NOT EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value IN (" + placeholders(len(list)) + "))", list, nil

	default:
		return "", nil, errors.Newf(ErrInvalidPredicate, "unknown operator %q", op)
	}
}

func stringOperand(operand any) string {
	if s, ok := operand.(string); ok {
		return s
	}
	return ""
}

// listOperand normalizes list operands. A bare scalar is treated as a
// one-element list.
func listOperand(op string, operand any) ([]any, error) {
	switch v := operand.(type) {
	case []any:
		if len(v) == 0 {
			return nil, errors.Newf(ErrInvalidPredicate, "%s operand must not be empty", op)
		}
		return v, nil
	case []string:
		if len(v) == 0 {
			return nil, errors.Newf(ErrInvalidPredicate, "%s operand must not be empty", op)
		}
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list, nil
	case nil:
		return nil, errors.Newf(ErrInvalidPredicate, "%s operand must be a list", op)
	default:
		return []any{v}, nil
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
