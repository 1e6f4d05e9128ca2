package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

const UnknownIP = "unknown"

// Identity is the behavioral-cache key of a visitor. It only lives for the
// lifetime of the process.
type Identity struct {
	IP            string
	UserAgentHash string
}

func New(ip, userAgent string) Identity {
	return Identity{
		IP:            ip,
		UserAgentHash: HashUserAgent(userAgent),
	}
}

func NewFromID(id string) (*Identity, error) {
	decoded, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, errors.New("invalid fingerprint ID format")
	}
	return &Identity{
		IP:            parts[0],
		UserAgentHash: parts[1],
	}, nil
}

func (f Identity) ID() string {
	raw := f.IP + "|" + f.UserAgentHash
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// HashUserAgent returns a short stable digest of the raw user-agent.
func HashUserAgent(userAgent string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userAgent)))
	return hex.EncodeToString(sum[:16])
}
