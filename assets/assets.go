// Package assets embeds the files shipped with the binaries.
package assets

import "embed"

// EmailTemplatesDir is the directory of email templates within FS.
const EmailTemplatesDir = "templates/email"

// CommonPasswordsFile is a gzipped list of common passwords, one per line.
const CommonPasswordsFile = "common-passwords.txt.gz"

//go:embed all:templates common-passwords.txt.gz
var FS embed.FS
