package conduit

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// CalculateMD5 returns the lowercase hex MD5 digest of data.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ParseJSON decodes data, returning the input string unchanged when it is not
// valid JSON.
func ParseJSON(data string) any {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return data
	}
	return v
}

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// ValidateURL reports whether s parses as an absolute URL.
func ValidateURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
