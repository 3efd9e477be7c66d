package security

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

// ValidateFile rejects deny-listed extensions (including double extensions such
// as ".jpg.php") and MIME types outside the allow-list. Either failure is a
// hard rejection. An empty contentType skips the MIME check, since upload
// metadata may omit it.
func (v *Validator) ValidateFile(filename, contentType string) error {
	if err := v.validateExtension(filename); err != nil {
		return err
	}

	if contentType == "" {
		return nil
	}

	mimeType := normalizeMimeType(contentType)
	if mimeType == "" {
		return fmt.Errorf("%w: unparseable content type %q", domain.ErrInvalidFileType, contentType)
	}
	if _, ok := v.allowedMime[mimeType]; !ok {
		return fmt.Errorf("%w: unsupported MIME type %s", domain.ErrInvalidFileType, mimeType)
	}
	return nil
}

func (v *Validator) validateExtension(filename string) error {
	lower := strings.ToLower(filename)

	if ext := filepath.Ext(lower); ext != "" {
		if _, denied := v.deniedExts[ext]; denied {
			return fmt.Errorf("%w: %s", domain.ErrDangerousExtension, ext)
		}
	}

	// Double-extension detection: any inner segment that is itself a dangerous
	// extension ("shell.php.jpg") is rejected too.
	segments := strings.Split(lower, ".")
	for _, seg := range segments[1:] {
		if _, denied := v.deniedExts["."+seg]; denied {
			return fmt.Errorf("%w: .%s", domain.ErrDangerousExtension, seg)
		}
	}
	return nil
}

// normalizeMimeType strips parameters such as ";charset=utf-8" and lowercases
// the media type. Returns "" for unparseable input.
func normalizeMimeType(contentType string) string {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mimeType)
}
