package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GenerateFromConfigDir reads every *.hcl file below configDir and merges
// it into the agent config. Single blocks (scheduler, bridge, ...) of later
// files replace earlier ones; lists are appended.
func (a *Agent) GenerateFromConfigDir(configDir string) error {
	configDir = strings.TrimRight(configDir, "/")

	matches, err := configFiles(configDir)
	if err != nil {
		return err
	}

	for _, m := range matches {
		log.Infof("found config file: %s", m)

		contents, err := os.ReadFile(m)
		if err != nil {
			return err
		}

		part, err := Parse(contents, filepath.Dir(m))
		if err != nil {
			return errors.Wrapf(err, "could not parse configuration file %s", m)
		}

		a.merge(part)
	}

	return nil
}

// Parse decodes one configuration document. Relative script file paths are
// resolved against baseDir.
func Parse(contents []byte, baseDir string) (*Agent, error) {
	part := &Agent{}
	if err := hcl.Unmarshal(contents, part); err != nil {
		return nil, err
	}

	for i := range part.Scripts {
		part.Scripts[i].resolvePath(baseDir)
	}
	for i := range part.Endpoints {
		for j := range part.Endpoints[i].Scripts {
			part.Endpoints[i].Scripts[j].resolvePath(baseDir)
		}
	}

	return part, nil
}

func (a *Agent) merge(o *Agent) {
	if o.Scheduler != nil {
		a.Scheduler = o.Scheduler
	}
	if o.Bridge != nil {
		a.Bridge = o.Bridge
	}
	if o.Sink != nil {
		a.Sink = o.Sink
	}
	if o.Notify != nil {
		a.Notify = o.Notify
	}
	if o.Server != nil {
		a.Server = o.Server
	}
	a.Remotes = append(a.Remotes, o.Remotes...)
	a.Scripts = append(a.Scripts, o.Scripts...)
	a.Probes = append(a.Probes, o.Probes...)
	a.Endpoints = append(a.Endpoints, o.Endpoints...)
}

func (s *Script) resolvePath(baseDir string) {
	if s.File != "" && !filepath.IsAbs(s.File) && baseDir != "" {
		s.File = filepath.Join(baseDir, s.File)
	}
}

// LoadSource returns the inline source or the content of the script file.
func (s *Script) LoadSource() (string, error) {
	if s.Source != "" {
		return s.Source, nil
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", errors.Wrapf(err, "could not read script %q", s.Name)
	}
	return string(data), nil
}

// configFiles lists the *.hcl files below dir in lexical order, so that
// merging is deterministic.
func configFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && filepath.Ext(d.Name()) == ".hcl" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not scan config dir %s", dir)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("could not find any configuration files in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}
