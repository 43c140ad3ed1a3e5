package reconcile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	shareCodePattern = regexp.MustCompile(`/s/([^/?]+)`)
	embedCodePattern = regexp.MustCompile(`/e/([^/?]+)`)
)

// ExtractCode returns the provider file code: the explicit code field, else
// the token after /s/ in the share link, else the token after /e/ in the
// embed link.
func ExtractCode(f filehost.File) (string, bool) {
	if code := strings.TrimSpace(f.Code); code != "" {
		return code, true
	}
	return CodeFromLinks(f.ShareLink, f.EmbedLink)
}

func CodeFromLinks(shareLink, embedLink string) (string, bool) {
	if m := shareCodePattern.FindStringSubmatch(shareLink); m != nil {
		return m[1], true
	}
	if m := embedCodePattern.FindStringSubmatch(embedLink); m != nil {
		return m[1], true
	}
	return "", false
}

// NormalizeDirID is for matching only. Stored and displayed dir ids keep the
// provider's casing.
func NormalizeDirID(dirID string) (string, bool) {
	trimmed := strings.TrimSpace(dirID)
	if trimmed == "" {
		return "", false
	}
	// cases.Caser holds state and is not safe to share.
	return cases.Lower(language.Und).String(trimmed), true
}

func normalizePtr(dirID *string) (string, bool) {
	if dirID == nil {
		return "", false
	}
	return NormalizeDirID(*dirID)
}

type IdentityKind string

const (
	IdentityLocal  IdentityKind = "local"
	IdentityRemote IdentityKind = "remote"
)

// VideoIdentity names a video either by its local row id or by its remote
// file code, never both.
type VideoIdentity struct {
	Kind IdentityKind `json:"kind"`
	ID   uint         `json:"id,omitempty"`
	Code string       `json:"code,omitempty"`
}

func LocalIdentity(id uint) VideoIdentity {
	return VideoIdentity{Kind: IdentityLocal, ID: id}
}

func RemoteIdentity(code string) VideoIdentity {
	return VideoIdentity{Kind: IdentityRemote, Code: code}
}

func (v VideoIdentity) IsLocal() bool {
	return v.Kind == IdentityLocal
}

func (v VideoIdentity) Validate() error {
	switch v.Kind {
	case IdentityLocal:
		if v.ID == 0 || v.Code != "" {
			return fmt.Errorf("%w: local identity needs an id and no code", apperrors.ErrInvalidInput)
		}
	case IdentityRemote:
		if strings.TrimSpace(v.Code) == "" || v.ID != 0 {
			return fmt.Errorf("%w: remote identity needs a code and no id", apperrors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown identity kind %q", apperrors.ErrInvalidInput, v.Kind)
	}
	return nil
}

// Key is the stable string form, e.g. "local:12" or "remote:abc123".
func (v VideoIdentity) Key() string {
	if v.Kind == IdentityLocal {
		return string(IdentityLocal) + ":" + strconv.FormatUint(uint64(v.ID), 10)
	}
	return string(IdentityRemote) + ":" + v.Code
}

func (v VideoIdentity) String() string {
	return v.Key()
}

func ParseVideoIdentity(key string) (VideoIdentity, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok {
		return VideoIdentity{}, fmt.Errorf("%w: malformed video identity %q", apperrors.ErrInvalidInput, key)
	}

	var id VideoIdentity
	switch IdentityKind(kind) {
	case IdentityLocal:
		parsed, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return VideoIdentity{}, fmt.Errorf("%w: malformed local id %q", apperrors.ErrInvalidInput, rest)
		}
		id = LocalIdentity(uint(parsed))
	case IdentityRemote:
		id = RemoteIdentity(rest)
	default:
		id = VideoIdentity{Kind: IdentityKind(kind)}
	}

	if err := id.Validate(); err != nil {
		return VideoIdentity{}, err
	}
	return id, nil
}

// UnmarshalJSON accepts the object form {"kind":"local","id":5} and the key
// form "local:5".
func (v *VideoIdentity) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var key string
		if err := json.Unmarshal(data, &key); err != nil {
			return err
		}
		parsed, err := ParseVideoIdentity(key)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	type rawIdentity VideoIdentity
	var raw rawIdentity
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := VideoIdentity(raw)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*v = parsed
	return nil
}
