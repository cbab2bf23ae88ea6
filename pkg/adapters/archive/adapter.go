package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/adapters/jsonlint"
	"github.com/leapstack-labs/metalint/pkg/adapters/tomllint"
	"github.com/leapstack-labs/metalint/pkg/adapters/yamllint"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/glob"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "archive"

const defaultMaxSize = 10 << 20

// checks maps member extensions to their format check.
var checks = map[string]adapter.CheckFunc{
	".json": jsonlint.Check,
	".yaml": yamllint.Check,
	".yml":  yamllint.Check,
	".toml": tomllint.Check,
}

// Options configures the adapter.
type Options struct {
	// Members are patterns, matched against member paths, selecting the
	// members to check. Members with no known extension are skipped.
	Members []string `mapstructure:"members"`
	// MaxSize is the largest uncompressed member, in bytes, that is read.
	MaxSize int64 `mapstructure:"max_size"`
}

// Adapter checks zip archives.
type Adapter struct {
	adapter.Base
	opts    Options
	members *glob.Glob
}

// New builds the adapter.
func New(lctx lint.Context, options map[string]any) (lint.Adapter, error) {
	opts := Options{Members: []string{"**"}, MaxSize: defaultMaxSize}
	if err := lint.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("max_size must be positive, got %d", opts.MaxSize)
	}
	members, err := glob.New(opts.Members, glob.Options{Cwd: "/", Root: "/"})
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	return &Adapter{Base: adapter.NewBase(Name, lctx), opts: opts, members: members}, nil
}

// Lint checks every selected member of the archive file.
func (a *Adapter) Lint(ctx context.Context, file string) []lint.Notice {
	if a.Silent() {
		return nil
	}

	r, err := zip.OpenReader(a.Ctx.Path(file))
	if err != nil {
		return a.Fatal(file, fmt.Errorf("opening archive: %w", err))
	}
	defer r.Close()

	c := a.Collect(file)
	for _, f := range r.File {
		if ctx.Err() != nil {
			break
		}
		if strings.HasSuffix(f.Name, "/") || !a.members.Test(f.Name) {
			continue
		}
		check, ok := checks[strings.ToLower(path.Ext(f.Name))]
		if !ok {
			continue
		}

		member := file + "/" + f.Name
		if f.UncompressedSize64 > uint64(a.opts.MaxSize) {
			c.AddFor(member, core.SeverityInfo, "size", fmt.Sprintf("skipped: larger than %d bytes", a.opts.MaxSize))
			continue
		}

		content, err := readMember(f, a.opts.MaxSize)
		if err != nil {
			c.AddFor(member, core.SeverityFatal, "", err.Error())
			continue
		}

		problems, err := check(content)
		if err != nil {
			c.AddFor(member, core.SeverityFatal, "", err.Error(), adapter.Positions(err)...)
			continue
		}
		for _, p := range problems {
			c.AddFor(member, core.SeverityError, p.Rule, p.Message, p.Locations()...)
		}
	}

	a.Logger.Debug("checked archive", "file", file, "members", len(r.File))
	return c.Notices()
}

func readMember(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening member: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading member: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("member is larger than %d bytes", limit)
	}
	return data, nil
}
