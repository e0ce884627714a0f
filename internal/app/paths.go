package app

import (
	"os"
	"path/filepath"
)

// DirName is the per-user data directory created under the data root.
const DirName = ".survey"

// Paths holds all resolved filesystem paths for the .survey/ directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .survey/
	DB     string // .survey/session.db
	Status string // .survey/status.json

	LogDir string // .survey/log/
	Log    string // .survey/log/survey.log
	Outbox string // .survey/log/outbox.jsonl

	CollectDB string // .survey/collect.db (collection server)
}

// NewPaths constructs all resolved paths from a data root directory.
func NewPaths(dataRoot string) *Paths {
	root := filepath.Join(dataRoot, DirName)
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "session.db"),
		Status: filepath.Join(root, "status.json"),

		LogDir: filepath.Join(root, "log"),
		Log:    filepath.Join(root, "log", "survey.log"),
		Outbox: filepath.Join(root, "log", "outbox.jsonl"),

		CollectDB: filepath.Join(root, "collect.db"),
	}
}

// EnsureDirs creates all subdirectories under .survey/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes the status snapshot. Called on reset.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.Status)
}
