/*
This is free and unencumbered software released into the public domain.

Anyone is free to copy, modify, publish, use, compile, sell, or
distribute this software, either in source code form or as a compiled
binary, for any purpose, commercial or non-commercial, and by any
means.

In jurisdictions that recognize copyright laws, the author or authors
of this software dedicate any and all copyright interest in the
software to the public domain. We make this dedication for the benefit
of the public at large and to the detriment of our heirs and
successors. We intend this dedication to be an overt act of
relinquishment in perpetuity of all present and future rights to this
software under copyright law.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
OTHER DEALINGS IN THE SOFTWARE.

For more information, please refer to <http://unlicense.org/>
*/

// Package config collects the run settings: defaults, then the
// environment (optionally from a .env file), then command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/Fajla/open-street-maps/projection"
	"github.com/joho/godotenv"
)

const (
	IndexMemory  = "memory"
	IndexLevelDB = "leveldb"
)

const envPrefix = "OSMLEN_"

type Config struct {
	Source string
	Key    string
	Value  string

	// Output is the intermediate filtered PBF. Empty means an ephemeral
	// file in TempDir that is removed at the end unless Keep is set.
	Output  string
	Keep    bool
	TempDir string

	Index    string
	IndexDir string
	CacheMB  int

	Workers  int
	Interval time.Duration
	Mmap     bool
	Metadata bool

	DBURL      string
	Prefix     string
	StyleFile  string
	Projection string

	Verbose bool
}

func Default() Config {
	return Config{
		TempDir:    os.TempDir(),
		Index:      IndexMemory,
		CacheMB:    64,
		Workers:    runtime.GOMAXPROCS(0),
		Interval:   5 * time.Second,
		Prefix:     "planet_osm",
		Projection: projection.WebMercator.String(),
	}
}

type ValidationError struct {
	Field, Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

/*
LoadEnv reads envFile (if it exists) into the process environment and then
applies every OSMLEN_* variable to c. Variables already set in the
environment win over the file.
*/
func LoadEnv(c *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	var err error
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			*dst, err = strconv.Atoi(v)
			if err != nil {
				err = &ValidationError{envPrefix + name, err.Error()}
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			*dst, err = strconv.ParseBool(v)
			if err != nil {
				err = &ValidationError{envPrefix + name, err.Error()}
			}
		}
	}
	str("OUT", &c.Output)
	str("TEMPDIR", &c.TempDir)
	str("INDEX", &c.Index)
	str("INDEX_DIR", &c.IndexDir)
	str("DBURL", &c.DBURL)
	str("PREFIX", &c.Prefix)
	str("STYLE", &c.StyleFile)
	str("PROJECTION", &c.Projection)
	num("CACHE_MB", &c.CacheMB)
	num("WORKERS", &c.Workers)
	flag("KEEP", &c.Keep)
	flag("MMAP", &c.Mmap)
	flag("METADATA", &c.Metadata)
	if v, ok := os.LookupEnv(envPrefix + "INTERVAL"); ok && err == nil {
		c.Interval, err = time.ParseDuration(v)
		if err != nil {
			err = &ValidationError{envPrefix + "INTERVAL", err.Error()}
		}
	}
	return err
}

// samePath reports whether a and b name the same file, by cleaned absolute
// path or, when both exist, by identity (links, case-folding filesystems).
func samePath(a, b string) bool {
	aa, aerr := filepath.Abs(a)
	ab, berr := filepath.Abs(b)
	if aerr == nil && berr == nil && aa == ab {
		return true
	}
	sa, aerr := os.Stat(a)
	sb, berr := os.Stat(b)
	return aerr == nil && berr == nil && os.SameFile(sa, sb)
}

func (c *Config) Validate() error {
	switch {
	case c.Source == "":
		return &ValidationError{"source", "dataset path is empty"}
	case c.Key == "":
		return &ValidationError{"key", "tag key is empty"}
	case c.Output != "" && samePath(c.Output, c.Source):
		return &ValidationError{"out", "intermediate file would overwrite the source"}
	case c.Index != IndexMemory && c.Index != IndexLevelDB:
		return &ValidationError{"index", fmt.Sprintf("%q is neither %s nor %s", c.Index, IndexMemory, IndexLevelDB)}
	case c.CacheMB < 0:
		return &ValidationError{"cache", "must not be negative"}
	case c.Workers < 0:
		return &ValidationError{"workers", "must not be negative"}
	case c.Interval <= 0:
		return &ValidationError{"interval", "must be positive"}
	}
	if _, err := projection.Parse(c.Projection); err != nil {
		return &ValidationError{"projection", err.Error()}
	}
	return nil
}

func (c *Config) Proj() projection.Projection {
	p, _ := projection.Parse(c.Projection)
	return p
}
