package pretty

import (
	"encoding/json"
	"fmt"
	"io"
)

// Print writes data as indented JSON to w
func Print(w io.Writer, data interface{}) error {
	buf, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(buf))
	return err
}
