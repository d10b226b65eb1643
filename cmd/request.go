package main

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/model"
)

const maxRequestBytes = 1 << 20

// detectRequest is the wire form of a detection request, shared by the
// HTTP handler and the CLI commands.
type detectRequest struct {
	Text          string   `json:"text" validate:"required"`
	Mode          string   `json:"mode" validate:"omitempty,detect_mode"`
	MinConfidence *float64 `json:"min_confidence" validate:"omitempty,gte=0,lte=1"`
	NormalizeCode *bool    `json:"normalize_code"`
	Source        string   `json:"source" validate:"max=128"`
}

// requestError is a malformed or invalid request. Field is empty for
// decoding errors.
type requestError struct {
	Field   string
	Message string
}

func (e *requestError) Error() string { return "request: " + e.Message }

func isRequestError(err error) bool {
	var re *requestError
	return errors.As(err, &re)
}

type validatorSvc struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func getValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("detect_mode", func(fl validator.FieldLevel) bool {
			_, err := model.ParseMode(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterTranslation("detect_mode", trans,
			func(ut ut.Translator) error {
				return ut.Add("detect_mode", "{0} must be one of fast, auto or deep", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("detect_mode", fe.Field())
				return msg
			},
		)

		vSvc = &validatorSvc{validate: v, trans: trans}
	})
	return vSvc
}

// decodeDetectRequest reads one JSON object from r, rejecting unknown
// fields and trailing data.
func decodeDetectRequest(r io.Reader) (detectRequest, error) {
	var req detectRequest
	dec := json.NewDecoder(io.LimitReader(r, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, &requestError{Message: "empty body"}
		}
		return req, &requestError{Message: "invalid JSON: " + err.Error()}
	}
	if dec.More() {
		return req, &requestError{Message: "unexpected trailing data"}
	}
	return req, nil
}

// toModel validates the wire request and converts it. mode defaults to
// fast and normalize_code to true when absent.
func (r detectRequest) toModel() (model.DetectionRequest, error) {
	svc := getValidator()
	if err := svc.validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.DetectionRequest{}, &requestError{
				Field:   verrs[0].Field(),
				Message: verrs[0].Translate(svc.trans),
			}
		}
		return model.DetectionRequest{}, eris.Wrap(err, "request: validate")
	}

	modeName := r.Mode
	if modeName == "" {
		modeName = string(model.ModeFast)
	}
	mode, err := model.ParseMode(modeName)
	if err != nil {
		return model.DetectionRequest{}, &requestError{Field: "mode", Message: err.Error()}
	}

	normalize := true
	if r.NormalizeCode != nil {
		normalize = *r.NormalizeCode
	}

	return model.DetectionRequest{
		Text:          r.Text,
		Mode:          mode,
		MinConfidence: r.MinConfidence,
		NormalizeCode: normalize,
		SourceTag:     r.Source,
	}, nil
}

// detectResponse is the outcome of one request plus its audit record.
type detectResponse struct {
	model.DetectionOutcome
	RecordID   string `json:"record_id,omitempty"`
	AuditError string `json:"audit_error,omitempty"`
}

func newDetectResponse(out model.DetectionOutcome, recordID string, auditErr error) detectResponse {
	resp := detectResponse{DetectionOutcome: out, RecordID: recordID}
	if auditErr != nil {
		resp.AuditError = auditErr.Error()
	}
	return resp
}
