// Package utils contains small helpers shared by the command line.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes v to w as tab-indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
