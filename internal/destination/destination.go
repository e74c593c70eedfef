// Package destination computes where a filed letter goes and checks that it
// can go there: the client's letters folder must already exist and the
// canonical filename must be free. It never creates directories.
package destination

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/RabowNicholas/swna-automation/internal/fileutil"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
	"github.com/RabowNicholas/swna-automation/internal/textutil"
)

var canonicalPattern = regexp.MustCompile(`(?i)^.+ - \p{L}\. .+ \d{2}\.\d{2}\.\d{2}\.pdf$`)

// Destination is a validated target for one document.
type Destination struct {
	Folder   string `json:"folder"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// Validator resolves destinations under {clientsDir}/{client}/{lettersSubdir}.
type Validator struct {
	clientsDir    string
	lettersSubdir string
}

// New returns a validator rooted at clientsDir, the active clients folder.
func New(clientsDir, lettersSubdir string) *Validator {
	return &Validator{clientsDir: clientsDir, lettersSubdir: lettersSubdir}
}

// FileName renders "{label} - {F}. {Last} {MM.DD.YY}.pdf".
func FileName(label, firstName, lastName string, day time.Time) string {
	initial, _ := utf8.DecodeRuneInString(strings.TrimSpace(firstName))
	name := fmt.Sprintf("%s - %c. %s %s.pdf",
		strings.TrimSpace(label),
		unicode.ToUpper(initial),
		strings.TrimSpace(lastName),
		day.Format(registry.LogDateLayout),
	)
	return textutil.SanitizeFileName(name)
}

// Folder returns the letters folder for a record.
func (v *Validator) Folder(rec registry.Record) string {
	client := textutil.SanitizeFileName(registry.StripDisambiguators(rec.DisplayName))
	return filepath.Join(v.clientsDir, client, v.lettersSubdir)
}

// Validate computes the destination for rec and fails with ErrFolderMissing
// or ErrFileCollision. Filesystem checks are bounded by ctx.
func (v *Validator) Validate(ctx context.Context, rec registry.Record, label string, day time.Time) (Destination, error) {
	first, last, ok := registry.SplitDisplayName(rec.DisplayName)
	if !ok {
		return Destination{}, services.Wrap(services.ErrValidation, services.StageValidate, "filename",
			fmt.Sprintf("registry name %q is not in \"Last, First\" form", rec.DisplayName), nil)
	}
	dest := Destination{Folder: v.Folder(rec), FileName: FileName(label, first, last, day)}
	dest.Path = filepath.Join(dest.Folder, dest.FileName)

	var isDir, exists bool
	err := fileutil.Bounded(ctx, func() error {
		var err error
		if isDir, err = fileutil.IsDir(dest.Folder); err != nil || !isDir {
			return err
		}
		exists, err = fileutil.Exists(dest.Path)
		return err
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Destination{}, services.Wrap(services.ErrTimeout, services.StageValidate, "stat", dest.Folder, err)
	case err != nil:
		return Destination{}, services.Wrap(services.ErrFilesystem, services.StageValidate, "stat", dest.Folder, err)
	case !isDir:
		return Destination{}, services.Wrap(services.ErrFolderMissing, services.StageValidate, "folder", dest.Folder, nil)
	case exists:
		return Destination{}, services.Wrap(services.ErrFileCollision, services.StageValidate, "filename", dest.Path, nil)
	}
	return dest, nil
}

// IsCanonicalName reports whether name already looks like a filed letter,
// "{label} - {F}. {Last} {MM.DD.YY}.pdf".
func IsCanonicalName(name string) bool {
	return canonicalPattern.MatchString(name)
}
