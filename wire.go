package formulas

import (
	"encoding/json"
	"strconv"
)

// Request is a formula and its variables as sent to a calculation service.
type Request struct {
	Formula   string  `json:"formula"`
	Variables Binding `json:"variables"`
}

// Result is the outcome of a calculation: either a number or an error
// message. The zero Result is an error result with no message.
type Result struct {
	value float64
	msg   string
	ok    bool
}

// NumberResult returns a successful Result.
func NumberResult(f float64) Result {
	return Result{value: f, ok: true}
}

// ErrorResult returns a failed Result.
func ErrorResult(msg string) Result {
	return Result{msg: msg}
}

// Number returns the result value and whether the calculation succeeded.
func (r Result) Number() (float64, bool) {
	return r.value, r.ok
}

// Message returns the error message of a failed calculation.
func (r Result) Message() string {
	return r.msg
}

// String formats the number, or the error message if there is none.
func (r Result) String() string {
	if !r.ok {
		return r.msg
	}
	return strconv.FormatFloat(r.value, 'g', -1, 64)
}

type wireResult struct {
	Result *float64 `json:"result,omitempty"`
	Error  *string  `json:"error,omitempty"`
}

// MarshalJSON encodes r as {"result": n} or {"error": s}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(wireResult{Result: &r.value})
	}
	return json.Marshal(wireResult{Error: &r.msg})
}

// UnmarshalJSON decodes a response body. A present, non-null result wins;
// otherwise the error field is used, even if it is missing.
func (r *Result) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch {
	case w.Result != nil:
		*r = NumberResult(*w.Result)
	case w.Error != nil:
		*r = ErrorResult(*w.Error)
	default:
		*r = ErrorResult("")
	}
	return nil
}
