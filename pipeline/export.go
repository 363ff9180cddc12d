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

package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/Fajla/open-street-maps/measure"
	"github.com/Fajla/open-street-maps/sqlins"
	"github.com/Fajla/open-street-maps/style"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func loadStyle(path string) (style.Style, error) {
	if path == "" {
		return nil, nil
	}
	sf, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open style %s", path)
	}
	defer sf.Close()
	return style.LoadStyle(sf), nil
}

func (r *runner) export(ctx context.Context, lines []geombuild.Line, res *Result) error {
	stl, err := loadStyle(r.cfg.StyleFile)
	if err != nil {
		return err
	}
	tb := sqlins.NewTable(r.cfg.Prefix, stl, r.cfg.Proj())
	bdr, err := sqlins.Open(r.cfg.DBURL, tb)
	if err != nil {
		return err
	}
	defer bdr.Close()
	if err := bdr.TouchTable(ctx); err != nil {
		return err
	}

	r.log.Info("exporting lines", zap.String("table", tb.Tname), zap.Int("srid", r.cfg.Proj().SRID()))
	start := time.Now()
	for i := range lines {
		skipped, err := bdr.Add(ctx, &lines[i], measure.PathLength(lines[i].Coords))
		if err != nil {
			return err
		}
		if skipped {
			res.Skipped++
			r.log.Debug("skipped degenerate line", zap.Int64("path", lines[i].ID))
		}
		select {
		case <-r.tck:
			r.log.Info("export", zap.Int64("rows", bdr.Rows), zap.Int64("skipped", res.Skipped))
		default:
		}
	}
	if err := bdr.Close(); err != nil {
		return errors.Wrap(err, "commit export")
	}
	res.Exported = bdr.Rows
	r.log.Info("export done", zap.Int64("rows", bdr.Rows), zap.Duration("took", time.Since(start)))
	return nil
}
