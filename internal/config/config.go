// Package config handles application configuration and command-line argument
// parsing.
package config

import (
	"errors"
	"strconv"

	"github.com/alexflint/go-arg"
)

// UnboundedDepth is the sentinel for "no depth limit" on the CLI.
const UnboundedDepth = -1

// Exported variables.
var (
	ErrNoRoots          = errors.New("at least one root path is required")
	ErrInvalidQueueSize = errors.New("queue size must be positive")
	ErrInvalidMaxDepth  = errors.New("max depth must be zero or positive")
)

// Config holds the application configuration.
type Config struct {
	Roots          []string `arg:"positional,required" help:"Directories or sftp:// URLs to scan"`
	Include        []string `arg:"--include,separate" placeholder:"PATTERN" help:"Glob pattern for matching files, e.g. \"**/*.{tif,pdf}\"; files not matching any pattern are ignored"`
	Exclude        []string `arg:"--exclude,separate" placeholder:"PATTERN" help:"Glob pattern for excluding files and directories"`
	IncludeHidden  bool     `arg:"--include-hidden" help:"Include hidden files, which are ignored by default"`
	IncludeOSFiles bool     `arg:"--include-os-files" help:"Include OS-generated files like Thumbs.db and .DS_Store, ignored by default"`
	FollowSymlinks bool     `arg:"--follow-symlinks" help:"Follow symbolic links, not followed by default"`
	MaxDepth       int      `arg:"--max-depth" default:"-1" placeholder:"N" help:"Maximum recursion depth; 0 scans only the root's own listing"`
	QueueSize      int      `arg:"--queue-size" default:"1024" placeholder:"N" help:"Capacity of the entry queue between scanner and consumer"`
	DetectTypes    bool     `arg:"--detect-types" help:"Sniff each file's MIME type while scanning"`
	Watch          bool     `arg:"--watch" help:"After scanning, keep feeding newly created files into the queue"`
	Plain          bool     `arg:"--plain" help:"Print one path per line instead of the progress display"`
	Verbose        bool     `arg:"-v,--verbose" help:"Enable verbose logging"`
}

// Description returns the program description for go-arg.
func (Config) Description() string {
	return "Scans directory trees and feeds matching files into a bounded queue"
}

// Version returns the version string for go-arg.
func (Config) Version() string {
	return "treescan 1.0.0"
}

// ParseFlags parses command-line flags and returns the configuration.
func ParseFlags() (*Config, error) {
	cfg := &Config{
		MaxDepth:  UnboundedDepth,
		QueueSize: 1024,
	}

	arg.MustParse(cfg)

	return cfg, cfg.Validate()
}

// Validate checks the parsed configuration.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoRoots
	}

	if c.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}

	if c.MaxDepth < UnboundedDepth {
		return ErrInvalidMaxDepth
	}

	return nil
}

// ScannerOptions renders the configuration as the scanner's option-string
// surface.
func (c *Config) ScannerOptions() *Options {
	opts := NewOptions().
		Set(OptIncludeHiddenFiles, strconv.FormatBool(c.IncludeHidden)).
		Set(OptIncludeOSFiles, strconv.FormatBool(c.IncludeOSFiles)).
		Set(OptFollowSymlinks, strconv.FormatBool(c.FollowSymlinks))

	if c.MaxDepth != UnboundedDepth {
		opts.Set(OptMaxDepth, strconv.Itoa(c.MaxDepth))
	}

	for _, p := range c.Include {
		opts.Add(OptIncludePattern, p)
	}

	for _, p := range c.Exclude {
		opts.Add(OptExcludePattern, p)
	}

	return opts
}
