// Package publicpath computes the base path a compiled partial assumes when it
// references other emitted assets. The policy matches the primary document
// generator so relative references resolve identically in both.
package publicpath

import (
	"path/filepath"
	"strings"
)

// Auto is the sentinel meaning "derive relative to the artifact".
const Auto = "auto"

// Set returns p as a configured public path. A nil public path means Auto; a
// pointer to "" is an explicit empty prefix.
func Set(p string) *string { return &p }

// Config is the public-path view of the host output configuration.
type Config struct {
	// PublicPath is an explicit prefix or Auto.
	PublicPath string
	// OutputPath is the output root on disk.
	OutputPath string
	// Hash replaces [hash] and [fullhash] placeholders in an explicit public path.
	Hash string
}

// Resolve returns the public path for the artifact emitted at artifactName
// (relative to the output root). Non-empty results always end in "/".
func Resolve(cfg Config, artifactName string) string {
	var publicPath string
	if cfg.PublicPath != Auto {
		publicPath = interpolate(cfg.PublicPath, cfg.Hash)
	} else {
		publicPath = relative(cfg.OutputPath, artifactName)
	}
	if publicPath != "" && !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath
}

func interpolate(publicPath, hash string) string {
	return strings.NewReplacer("[fullhash]", hash, "[hash]", hash).Replace(publicPath)
}

// relative walks from the artifact's directory back to the output root.
func relative(outputPath, artifactName string) string {
	root := filepath.Clean(outputPath)
	dir := filepath.Join(root, filepath.Dir(filepath.FromSlash(artifactName)))
	rel, err := filepath.Rel(dir, root)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
