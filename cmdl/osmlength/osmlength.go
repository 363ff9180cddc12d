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

// Command osmlength sums the length of all ways carrying a tag.
//
//	osmlength map.osm.pbf highway residential
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Fajla/open-street-maps/codec"
	"github.com/Fajla/open-street-maps/config"
	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/Fajla/open-street-maps/logger"
	"github.com/Fajla/open-street-maps/measure"
	"github.com/Fajla/open-street-maps/pipeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errorKind names the failure class for the final log line.
func errorKind(err error) string {
	var (
		snf *codec.SourceNotFoundError
		mre *codec.MalformedRecordError
		dwe *codec.DestinationWriteError
		dre *geombuild.DanglingReferenceError
		ve  *config.ValidationError
	)
	switch {
	case errors.As(err, &snf):
		return "SourceNotFound"
	case errors.As(err, &mre):
		return "MalformedRecord"
	case errors.As(err, &dre):
		return "DanglingReference"
	case errors.As(err, &dwe):
		return "DestinationWrite"
	case errors.As(err, &ve):
		return "InvalidConfig"
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	}
	return "Internal"
}

func report(w io.Writer, res pipeline.Result) {
	fmt.Fprintf(w, "Total length: %.3f km\n", measure.Kilometers(res.TotalMeters))
	secs := int64(res.Elapsed / time.Second)
	fmt.Fprintf(w, "%d minutes %d seconds\n", secs/60, secs%60)
}

// usageError prints the usage line to stderr and reports err as a
// configuration failure.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\nUsage: %s map_file_path tag_key tag_value\n", cmd.Name(), err, cmd.Name())
	return &config.ValidationError{Field: "args", Reason: err.Error()}
}

func newCommand(cfg *config.Config) *cobra.Command {
	var verbose, jsonLog bool
	cmd := &cobra.Command{
		Use:   "osmlength <map_file_path> <tag_key> <tag_value>",
		Short: "Total length of the ways tagged key=value in an OSM file",
		Long: `osmlength streams the map twice: once to collect the nodes referenced by
matching ways, once to write those nodes and ways to a filtered PBF file.
The filtered file is then loaded, every way is rebuilt from its nodes and
the great-circle lengths are summed.

Settings can also come from OSMLEN_* environment variables or a .env file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return usageError(cmd, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Source, cfg.Key, cfg.Value = args[0], args[1], args[2]
			log, err := logger.New(verbose, jsonLog)
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := pipeline.Run(cmd.Context(), *cfg, log)
			if err != nil {
				log.Error("run failed", zap.String("kind", errorKind(err)), zap.Error(err))
				return err
			}
			report(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(usageError)
	f := cmd.Flags()
	f.StringVarP(&cfg.Output, "out", "o", cfg.Output, "filtered intermediate PBF (default: temporary file)")
	f.BoolVar(&cfg.Keep, "keep", cfg.Keep, "keep the temporary intermediate file")
	f.StringVar(&cfg.TempDir, "tempdir", cfg.TempDir, "directory for temporary files")
	f.StringVar(&cfg.Index, "index", cfg.Index, "point index for rebuilding ways: memory or leveldb")
	f.StringVar(&cfg.IndexDir, "index-dir", cfg.IndexDir, "directory of the leveldb index (default: tempdir)")
	f.IntVar(&cfg.CacheMB, "cache", cfg.CacheMB, "megabytes of coordinate cache in front of the leveldb index")
	f.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "PBF decoding goroutines")
	f.DurationVar(&cfg.Interval, "interval", cfg.Interval, "progress logging interval")
	f.BoolVar(&cfg.Mmap, "mmap", cfg.Mmap, "memory-map the source file")
	f.BoolVar(&cfg.Metadata, "metadata", cfg.Metadata, "read and write author/timestamp metadata")
	f.StringVar(&cfg.DBURL, "dburl", cfg.DBURL, "PostGIS connection string; exports the measured ways when set")
	f.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "table prefix for the export")
	f.StringVar(&cfg.StyleFile, "style", cfg.StyleFile, "osm2pgsql style file selecting tag columns of the export")
	f.StringVar(&cfg.Projection, "projection", cfg.Projection, "export projection: latlon, mercator or wgs84-mercator")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	f.BoolVar(&jsonLog, "json", false, "JSON log output")
	return cmd
}

func main() {
	cfg := config.Default()
	envFile := os.Getenv("OSMLEN_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadEnv(&cfg, envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newCommand(&cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
