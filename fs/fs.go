package appfs

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql assets/templates/email/*
var FS embed.FS

// EmailTemplates returns the email templates directory as the root of the returned FS.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(FS, "assets/templates/email")
	if err != nil {
		panic(err) // the path is embedded at build time
	}
	return sub
}
