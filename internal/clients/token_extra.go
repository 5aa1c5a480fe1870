package clients

import (
	"strconv"

	"golang.org/x/oauth2"
)

// extraInt64 reads a numeric extension field from a token response. JSON
// bodies surface numbers as float64, form-encoded bodies as int64 or string.
func extraInt64(token *oauth2.Token, key string) int64 {
	switch v := token.Extra(key).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
