package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func executeSearchProcess(ctx context.Context, lookup *casestorex.Lookup, tool string, args map[string]any) (contractx.ToolResult, error) {
	number, err := stringArg(args, "process_number")
	if err != nil {
		return softFailure(tool, err)
	}

	out, err := lookup.SearchProcess(ctx, number)
	if err != nil {
		return softFailure(tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: out}, nil
}

func executeListDocuments(ctx context.Context, lookup *casestorex.Lookup, tool string, args map[string]any) (contractx.ToolResult, error) {
	number, err := stringArg(args, "process_number")
	if err != nil {
		return softFailure(tool, err)
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return softFailure(tool, err)
	}
	offset, err := intArg(args, "offset")
	if err != nil {
		return softFailure(tool, err)
	}

	out, err := lookup.GetDocumentList(ctx, number, casestorex.Page{Limit: limit, Offset: offset})
	if err != nil {
		return softFailure(tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: out}, nil
}

func executeDocumentsByType(ctx context.Context, lookup *casestorex.Lookup, tool string, args map[string]any) (contractx.ToolResult, error) {
	number, err := stringArg(args, "process_number")
	if err != nil {
		return softFailure(tool, err)
	}
	docType, err := stringArg(args, "document_type")
	if err != nil {
		return softFailure(tool, err)
	}

	out, err := lookup.GetDocumentsByType(ctx, number, docType)
	if err != nil {
		return softFailure(tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: out}, nil
}

// softFailure turns expected lookup outcomes into tool results. Anything else
// (storage, cancellation) is returned as an error.
func softFailure(tool string, err error) (contractx.ToolResult, error) {
	switch {
	case errors.Is(err, casestorex.ErrInputFormat):
		return contractx.ToolResult{Tool: tool, Code: CodeInvalidInput, Error: err.Error()}, nil
	case errors.Is(err, casestorex.ErrCaseNotFound):
		return contractx.ToolResult{Tool: tool, Code: CodeNotFound, Error: err.Error()}, nil
	default:
		return contractx.ToolResult{Tool: tool}, err
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", casestorex.ErrInputFormat, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", casestorex.ErrInputFormat, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", casestorex.ErrInputFormat, key)
	}
	return value, nil
}

// intArg reads an optional non-negative integer. Models send numbers as JSON
// floats and sometimes as strings.
func intArg(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, nil
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", casestorex.ErrInputFormat, key)
		}
		f = parsed
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", casestorex.ErrInputFormat, key)
		}
		f = float64(parsed)
	default:
		return 0, fmt.Errorf("%w: %s must be a number", casestorex.ErrInputFormat, key)
	}

	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", casestorex.ErrInputFormat, key)
	}
	return int(f), nil
}
