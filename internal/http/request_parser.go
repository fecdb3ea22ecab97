package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"honoraires/internal/core"
)

const maxBodyBytes = 1 << 20

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", errBadRequest, name, r.PathValue(name))
	}
	return id, nil
}

func queryYear(q url.Values) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", core.ErrInvalidYear, q.Get("year"))
	}
	return year, nil
}

// queryBool treats "true", "1" and "yes" as set.
func queryBool(q url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(key))) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
// An empty body leaves dst untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// monthValue accepts a month as a number or as a label such as "REGLT".
type monthValue int

func (m *monthValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	month, err := core.ParseMonth(s)
	if err != nil {
		return err
	}
	*m = monthValue(month)
	return nil
}
