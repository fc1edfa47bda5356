// Package bootstrap creates the starter configuration of a sitetrack project.
package bootstrap

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldworks/sitetrack/internal/config"
	"github.com/fieldworks/sitetrack/internal/testable"
)

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// DataDir is the directory of JSON table files looked for by Detect.
const DataDir = "data"

// stateEntry is the .gitignore line that keeps the snapshot cache local.
const stateEntry = ".sitetrack/"

// InitConfig holds the inputs for the init command.
type InitConfig struct {
	Dir   string
	Force bool

	// Getenv reads the environment. Nil means os.Getenv.
	Getenv func(string) string
}

// Action records a single file operation performed during init.
type Action struct {
	File        string // e.g. ".sitetrack.yaml", ".gitignore"
	Operation   string // "created", "updated", "skipped"
	Description string // human-readable detail
}

// Detection is the source driver chosen for a project.
type Detection struct {
	Driver string
	Path   string
	Dir    string
	Reason string
}

// InitResult holds the outcome of an init run.
type InitResult struct {
	Actions   []Action
	Detection Detection
}

// Run detects the source, writes the config and ignores the state dir.
func Run(cfg InitConfig) (*InitResult, error) {
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	det := Detect(cfg.Dir, cfg.Getenv)
	result := &InitResult{Detection: det}

	configAction, err := GenerateConfig(cfg.Dir, det, cfg.Force)
	if err != nil {
		return nil, err
	}
	result.Actions = append(result.Actions, configAction)

	ignoreAction, err := IgnoreStateDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	result.Actions = append(result.Actions, ignoreAction)
	return result, nil
}

// Detect picks a driver in order: a REST backend URL in the environment, a
// database URL, a SQLite file in dir, JSON files under dir/data. With none
// of those it falls back to the REST backend.
func Detect(dir string, getenv func(string) string) Detection {
	if getenv(config.EnvURL) != "" {
		return Detection{Driver: "postgrest", Reason: config.EnvURL + " is set"}
	}
	if getenv(config.EnvDSN) != "" {
		return Detection{Driver: "postgres", Reason: config.EnvDSN + " is set"}
	}
	for _, pattern := range []string{"*.db", "*.sqlite", "*.sqlite3"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		if len(matches) > 0 {
			name := filepath.Base(matches[0])
			return Detection{Driver: "sqlite", Path: name, Reason: "found " + name}
		}
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, DataDir, "*.json")); len(matches) > 0 {
		return Detection{Driver: "json", Dir: DataDir, Reason: fmt.Sprintf("found %d JSON tables in %s/", len(matches), DataDir)}
	}
	return Detection{Driver: "postgrest", Reason: "default; set " + config.EnvURL + " and " + config.EnvKey}
}

// GenerateConfig writes .sitetrack.yaml for det. An existing config file,
// YAML or TOML, is kept unless force is set.
func GenerateConfig(dir string, det Detection, force bool) (Action, error) {
	if !force {
		for _, name := range []string{config.FileName, config.TOMLFileName} {
			if _, err := FS.Stat(filepath.Join(dir, name)); err == nil {
				return Action{File: name, Operation: "skipped", Description: "already exists, use --force to regenerate"}, nil
			}
		}
	}

	cfg := config.Defaults()
	cfg.Source.Driver = det.Driver
	cfg.Source.Path = det.Path
	cfg.Source.Dir = det.Dir
	cfg.StateDir = ""

	var buf bytes.Buffer
	buf.WriteString("# sitetrack configuration. Secrets stay in the environment variables\n")
	buf.WriteString("# named by source.key_env and source.dsn_env.\n")
	if err := config.Write(&buf, cfg); err != nil {
		return Action{}, fmt.Errorf("encode %s: %w", config.FileName, err)
	}
	// The YAML file takes precedence over a TOML file left in place.
	if err := FS.WriteFile(filepath.Join(dir, config.FileName), buf.Bytes(), 0o600); err != nil {
		return Action{}, fmt.Errorf("write %s: %w", config.FileName, err)
	}
	return Action{File: config.FileName, Operation: "created", Description: det.Driver + " source, " + det.Reason}, nil
}

// IgnoreStateDir adds the snapshot cache to an existing .gitignore.
func IgnoreStateDir(dir string) (Action, error) {
	path := filepath.Join(dir, ".gitignore")
	data, err := FS.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Action{File: ".gitignore", Operation: "skipped", Description: "no .gitignore"}, nil
		}
		return Action{}, fmt.Errorf("read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if l := strings.TrimSpace(line); l == stateEntry || l == strings.TrimSuffix(stateEntry, "/") {
			return Action{File: ".gitignore", Operation: "skipped", Description: stateEntry + " already ignored"}, nil
		}
	}

	out := string(data)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += stateEntry + "\n"
	if err := FS.WriteFile(path, []byte(out), 0o644); err != nil { //nolint:gosec // .gitignore is not secret
		return Action{}, fmt.Errorf("write .gitignore: %w", err)
	}
	return Action{File: ".gitignore", Operation: "updated", Description: "ignore the " + stateEntry + " snapshot cache"}, nil
}
