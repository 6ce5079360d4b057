package skills

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Code classifies a validation failure so callers can tell cases apart.
type Code string

const (
	CodeMissing         Code = "missing"
	CodeWrongType       Code = "wrong_type"
	CodeOutOfRange      Code = "out_of_range"
	CodeEmpty           Code = "empty"
	CodeTooLong         Code = "too_long"
	CodeNothingToUpdate Code = "nothing_to_update"
)

type ValidationError struct {
	Field   string
	Code    Code
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Params are the decoded tool arguments. Numbers may arrive as float64,
// json.Number or Go integers depending on the decoder.
type Params map[string]any

type createArgs struct {
	title       string
	description *string
}

type idArgs struct {
	id int64
}

type updateArgs struct {
	id          int64
	title       *string
	description *string
}

func validateCreate(p Params) (createArgs, *ValidationError) {
	title, present, verr := optionalTitle(p)
	if verr != nil {
		return createArgs{}, verr
	}
	if !present {
		return createArgs{}, &ValidationError{Field: "title", Code: CodeMissing, Message: "title is required"}
	}
	desc, verr := optionalDescription(p)
	if verr != nil {
		return createArgs{}, verr
	}
	return createArgs{title: *title, description: desc}, nil
}

func validateID(p Params) (idArgs, *ValidationError) {
	id, verr := taskID(p)
	if verr != nil {
		return idArgs{}, verr
	}
	return idArgs{id: id}, nil
}

func validateUpdate(p Params) (updateArgs, *ValidationError) {
	id, verr := taskID(p)
	if verr != nil {
		return updateArgs{}, verr
	}
	if !supplied(p, "title") && !supplied(p, "description") {
		return updateArgs{}, &ValidationError{
			Code:    CodeNothingToUpdate,
			Message: "nothing to update: provide a new title or description",
		}
	}
	title, _, verr := optionalTitle(p)
	if verr != nil {
		return updateArgs{}, verr
	}
	desc, verr := optionalDescription(p)
	if verr != nil {
		return updateArgs{}, verr
	}
	return updateArgs{id: id, title: title, description: desc}, nil
}

// supplied treats JSON null the same as an absent key.
func supplied(p Params, key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

func taskID(p Params) (int64, *ValidationError) {
	if !supplied(p, "task_id") {
		return 0, &ValidationError{Field: "task_id", Code: CodeMissing, Message: "task_id is required"}
	}

	wrongType := &ValidationError{Field: "task_id", Code: CodeWrongType, Message: "task_id must be an integer"}
	nonPositive := &ValidationError{Field: "task_id", Code: CodeOutOfRange, Message: "task_id must be a positive integer"}

	var f float64
	switch v := p["task_id"].(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		if v <= 0 {
			return 0, nonPositive
		}
		return v, nil
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			if i <= 0 {
				return 0, nonPositive
			}
			return i, nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, wrongType
		}
		f = parsed
	default:
		return 0, wrongType
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, wrongType
	}
	if f <= 0 {
		return 0, nonPositive
	}
	if f >= math.MaxInt64 {
		return 0, &ValidationError{Field: "task_id", Code: CodeOutOfRange, Message: "task_id is too large"}
	}
	return int64(f), nil
}

// optionalTitle returns the trimmed title when supplied.
func optionalTitle(p Params) (*string, bool, *ValidationError) {
	if !supplied(p, "title") {
		return nil, false, nil
	}
	raw, ok := p["title"].(string)
	if !ok {
		return nil, true, &ValidationError{Field: "title", Code: CodeWrongType, Message: "title must be a string"}
	}
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return nil, true, &ValidationError{Field: "title", Code: CodeEmpty, Message: "title cannot be empty"}
	}
	if n > MaxTitleLength {
		return nil, true, &ValidationError{
			Field:   "title",
			Code:    CodeTooLong,
			Message: fmt.Sprintf("title must be at most %d characters (got %d)", MaxTitleLength, n),
		}
	}
	return &title, true, nil
}

// optionalDescription keeps whitespace as given.
func optionalDescription(p Params) (*string, *ValidationError) {
	if !supplied(p, "description") {
		return nil, nil
	}
	desc, ok := p["description"].(string)
	if !ok {
		return nil, &ValidationError{Field: "description", Code: CodeWrongType, Message: "description must be a string"}
	}
	if n := utf8.RuneCountInString(desc); n > MaxDescriptionLength {
		return nil, &ValidationError{
			Field:   "description",
			Code:    CodeTooLong,
			Message: fmt.Sprintf("description must be at most %d characters (got %d)", MaxDescriptionLength, n),
		}
	}
	return &desc, nil
}
