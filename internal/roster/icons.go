package roster

import (
	"io/fs"

	"clocktower/internal/catalog"
)

// IconResolver looks up <name>.png files in an fs.FS and returns them as
// icons/<name>.png paths, the URL prefix the panel serves them under.
type IconResolver struct {
	fsys fs.FS
}

func NewIconResolver(fsys fs.FS) *IconResolver {
	return &IconResolver{fsys: fsys}
}

// Icon prefers the role's own icon, then the team icon.
func (r *IconResolver) Icon(id string, team catalog.Team) string {
	if r == nil || r.fsys == nil {
		return ""
	}
	for _, name := range []string{id, string(team)} {
		if name == "" {
			continue
		}
		file := name + ".png"
		if _, err := fs.Stat(r.fsys, file); err == nil {
			return "icons/" + file
		}
	}
	return ""
}

// FS exposes the backing filesystem so the HTTP layer can serve the files.
func (r *IconResolver) FS() fs.FS {
	if r == nil {
		return nil
	}
	return r.fsys
}
