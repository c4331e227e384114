package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format identifies a supported configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatINI  Format = "ini"
)

// FormatFor infers the configuration syntax from the file extension.
// Unknown extensions are treated as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".ini", ".cfg", ".conf":
		return FormatINI
	default:
		return FormatTOML
	}
}

func decode(path string, data []byte, cfg *Config) error {
	switch FormatFor(path) {
	case FormatYAML:
		return decodeYAML(data, cfg)
	case FormatINI:
		return decodeINI(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// yamlDocument also accepts category blocks at the document root, e.g.
//
//	tv:
//	  path: /media/tv
//	  specific:
//	    - title: Better Call Saul
//	      path: /media/tv-priority
type yamlDocument struct {
	Config `yaml:",inline"`
	Root   map[string]Category `yaml:",inline"`
}

func decodeYAML(data []byte, cfg *Config) error {
	doc := yamlDocument{Config: *cfg}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	*cfg = doc.Config
	if len(doc.Root) > 0 && cfg.Categories == nil {
		cfg.Categories = make(map[string]Category, len(doc.Root))
	}
	for label, cat := range doc.Root {
		cfg.Categories[label] = cat
	}
	return nil
}

// decodeINI reads the classic layout: a [Defaults] section with CLI defaults,
// optional [extraction], [lock] and [history] sections, and one section per
// category carrying path, extensions (comma separated) and title_case.
// Override rules cannot be expressed in INI.
func decodeINI(data []byte, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, data)
	if err != nil {
		return err
	}
	for _, section := range file.Sections() {
		name := strings.TrimSpace(section.Name())
		switch name {
		case strings.ToLower(ini.DefaultSection):
			continue
		case "defaults":
			err = section.MapTo(&cfg.Defaults)
		case "extraction":
			err = section.MapTo(&cfg.Extraction)
		case "lock":
			err = section.MapTo(&cfg.Lock)
		case "history":
			err = section.MapTo(&cfg.History)
		default:
			if !section.HasKey("path") {
				continue
			}
			label := strings.TrimSpace(strings.TrimPrefix(name, "category "))
			cat := Category{
				Path:      section.Key("path").String(),
				TitleCase: section.Key("title_case").MustBool(false),
			}
			if section.HasKey("extensions") {
				cat.Extensions = section.Key("extensions").Strings(",")
			}
			if cfg.Categories == nil {
				cfg.Categories = make(map[string]Category)
			}
			cfg.Categories[label] = cat
		}
		if err != nil {
			return fmt.Errorf("section [%s]: %w", name, err)
		}
	}
	return nil
}
