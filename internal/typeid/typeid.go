package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixProject  = "proj"
	PrefixSnapshot = "snap"
	PrefixSpline   = "spl"
	PrefixAnchor   = "anc"
	PrefixPoint    = "pt"
	PrefixAsset    = "asset"
	PrefixExport   = "exp"
)

// New returns a fresh sortable ID such as "spl_01h455vb4pex5vsknk084sn02q".
func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewProjectID() string  { return New(PrefixProject) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewSplineID() string   { return New(PrefixSpline) }
func NewAnchorID() string   { return New(PrefixAnchor) }
func NewPointID() string    { return New(PrefixPoint) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewExportID() string   { return New(PrefixExport) }

// Validate checks that id parses and carries expectedPrefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// PrefixOf returns the prefix of id, or "" if id is not a valid typeid.
func PrefixOf(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}
