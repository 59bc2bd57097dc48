package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var _ APIResponse = &TypedAPIResponse[struct{}]{}

type TypedAPIResponse[TBody any] struct {
	StatusCode  int   `json:"statusCode"`
	Body        TBody `json:"body"`
	Error       error `json:"error"`
	contentType string
	color       bool
}

func NewTypedAPIResponse[TBody any](body TBody) func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
	return func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
		apiRes := TypedAPIResponse[TBody]{
			Error: err,
		}
		if resp == nil {
			return &apiRes
		}
		defer func() { _ = resp.Body.Close() }()

		apiRes.StatusCode = resp.StatusCode
		apiRes.contentType = strings.Split(resp.Header.Get("Content-Type"), ";")[0]

		out, err := io.ReadAll(resp.Body)
		if err != nil {
			apiRes.Error = fmt.Errorf("failed to read body: %w", err)
			return &apiRes
		}

		switch apiRes.contentType {
		case "application/json":
			if err := json.Unmarshal(out, &body); err != nil {
				apiRes.Error = pkgerrors.Wrapf(err, "failed to parse body as JSON")
				return &apiRes
			}
		case "text/plain":
			apiRes.Error = errors.New(strings.TrimSpace(string(out)))
			return &apiRes
		default:
			apiRes.Error = fmt.Errorf("unknown content type %q", apiRes.contentType)
			return &apiRes
		}

		apiRes.Body = body

		return &apiRes
	}
}

func (resp *TypedAPIResponse[TBody]) Err() error {
	return resp.Error
}

func (resp *TypedAPIResponse[TBody]) Print(w io.Writer) error {
	if resp.Error != nil {
		_, err := fmt.Fprintln(w, resp.Error.Error())
		return err
	}

	jsonBody, err := json.Marshal(resp.Body)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal body as JSON")
	}

	out, err := formatJSON(jsonBody, resp.color)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}
