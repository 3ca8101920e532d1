package storage

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

const defaultDriver = "sqlite3"

// Location identifies the backing database of the audit store. It is passed
// explicitly to every operation; there is no package-level default.
type Location struct {
	// Path is the database file for sqlite3, or the raw DSN for any other driver.
	Path string
	// Driver is the database/sql driver name. Empty means sqlite3.
	Driver string
}

// NewLocation returns a SQLite location for the given file path
func NewLocation(path string) Location {
	return Location{Path: path, Driver: defaultDriver}
}

func (l Location) driver() string {
	if l.Driver == "" {
		return defaultDriver
	}
	return l.Driver
}

func (l Location) isSQLite() bool {
	return l.driver() == defaultDriver
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds the connection string. create selects mode=rwc, used only by
// Initialize and Reset; every other operation must find an existing file.
func (l Location) dsn(create bool) string {
	if !l.isSQLite() {
		return l.Path
	}

	mode := "rw"
	if create {
		mode = "rwc"
	}
	return "file:" + uriEscaper.Replace(l.Path) +
		"?mode=" + mode + "&_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"
}

// missing reports whether the SQLite database file does not exist yet
func (l Location) missing() bool {
	if !l.isSQLite() {
		return false
	}
	_, err := os.Stat(l.Path)
	return errors.Is(err, fs.ErrNotExist)
}
