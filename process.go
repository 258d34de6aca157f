package dagcheck

import (
	"errors"
	"fmt"
)

// Response is what goes back on the wire: either a Result or an error message,
// never both. Callers tell them apart by the presence of "error".
type Response struct {
	*Result
	Error string `json:"error,omitempty"`
}

// OK reports whether the response carries a result.
func (r Response) OK() bool { return r.Result != nil && r.Error == "" }

// ErrorMessage maps an error to the text relayed to the caller.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return InvalidJSONMessage
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return err.Error()
}

// Process decodes raw, validates the pipeline under o and returns the response.
// It never panics and never returns a partial result with an error.
func (o Options) Process(raw []byte) Response {
	res, err := o.process(raw)
	if err != nil {
		return Response{Error: ErrorMessage(err)}
	}
	return Response{Result: &res}
}

// ValidatePipeline validates an already decoded pipeline.
func (o Options) ValidatePipeline(p *Pipeline) Result {
	return o.Validate(p.NodeIDs(), p.Edges)
}

func (o Options) process(raw []byte) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ProcessError{Msg: fmt.Sprint(r)}
		}
	}()

	p, err := DecodePipeline(raw)
	if err != nil {
		return Result{}, err
	}
	return o.ValidatePipeline(p), nil
}
