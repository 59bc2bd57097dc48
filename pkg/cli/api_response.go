package cli

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/tidwall/pretty"
)

type APIResponse interface {
	Print(w io.Writer) error
	Err() error
}

func formatJSON(raw []byte, color bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if color {
		out = pretty.Color(out, nil)
	}
	return out, nil
}
