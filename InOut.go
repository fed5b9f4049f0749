package routing

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	outPre    = 0
	outJSON   = 1
	outString = 2
	outBytes  = 3
)

// Action is a controller action. Filters share the same signature.
type Action func(in *In) *Out

// In is what actions and filters receive. R and W are nil outside of a
// HTTP request (tests, CLI).
type In struct {
	R          *http.Request
	W          http.ResponseWriter
	Params     []string
	Controller IController
	Action     string
}

func NewIn(w http.ResponseWriter, r *http.Request, params ...string) *In {
	if params == nil {
		params = []string{}
	}
	return &In{
		R:      r,
		W:      w,
		Params: params,
	}
}

func (in *In) Context() context.Context {
	if in.R != nil {
		return in.R.Context()
	}
	return context.Background()
}

// Continue is what a filter returns to let the request go on.
func (in *In) Continue() *Out {
	return &Out{kind: outPre}
}

func (in *In) OutputString(str string) *Out {
	return &Out{
		kind:       outString,
		contentStr: str,
		ctx:        in.Context(),
	}
}

func (in *In) OutputJSON(jobj interface{}) *Out {
	return &Out{
		kind:       outJSON,
		contentObj: jobj,
		ctx:        in.Context(),
	}
}

func (in *In) OutputBytes(b []byte) *Out {
	return &Out{
		kind:         outBytes,
		contentBytes: b,
		ctx:          in.Context(),
	}
}

// OutputStatus is a plain text response with an explicit status code.
func (in *In) OutputStatus(status int, str string) *Out {
	o := in.OutputString(str)
	o.status = status
	return o
}

type Out struct {
	kind         int
	status       int
	contentObj   interface{}
	contentStr   string
	contentBytes []byte
	ctx          context.Context
}

// IsContinue is true for in.Continue(). A nil *Out also counts.
func (o *Out) IsContinue() bool {
	return o == nil || o.kind == outPre
}

func (o *Out) Status() int {
	if o == nil || o.status == 0 {
		return http.StatusOK
	}
	return o.status
}

func (o *Out) Render(w http.ResponseWriter) error {
	if o.IsContinue() {
		return nil
	}
	if o.ctx != nil {
		if err := o.ctx.Err(); err != nil {
			// client went away
			return err
		}
	}
	var body []byte
	switch o.kind {
	case outJSON:
		b, err := json.Marshal(o.contentObj)
		if err != nil {
			return err
		}
		setDefaultContentType(w, "application/json; charset=utf-8")
		body = b
	case outString:
		setDefaultContentType(w, "text/plain; charset=utf-8")
		body = []byte(o.contentStr)
	case outBytes:
		setDefaultContentType(w, "application/octet-stream")
		body = o.contentBytes
	}
	if o.status != 0 {
		w.WriteHeader(o.status)
	}
	_, err := w.Write(body)
	return err
}

func (o *Out) String() string {
	if o == nil {
		return ""
	}
	switch o.kind {
	case outJSON:
		b, err := json.Marshal(o.contentObj)
		if err != nil {
			return ""
		}
		return string(b)
	case outString:
		return o.contentStr
	case outBytes:
		return string(o.contentBytes)
	}
	return ""
}

func setDefaultContentType(w http.ResponseWriter, ct string) {
	if len(w.Header().Get("Content-Type")) < 1 {
		w.Header().Set("Content-Type", ct)
	}
}
