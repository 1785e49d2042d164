package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformServer  Platform = "server"
)

var ErrBundleEmpty = errors.New("bundle produced no output")

// BundleError carries the bundler diagnostics for a failed entry point
type BundleError struct {
	Entry    string
	Messages []string
}

func (e *BundleError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("failed to bundle %s", e.Entry)
	}
	first, _, _ := strings.Cut(e.Messages[0], "\n")
	return fmt.Sprintf("failed to bundle %s: %s", e.Entry, strings.TrimSpace(first))
}

// Diagnostics returns every message in full, for development error pages
func (e *BundleError) Diagnostics() string {
	return strings.Join(e.Messages, "\n")
}

// Bundler turns one source entry point into a single ES module
type Bundler interface {
	Bundle(ctx context.Context, entry string, platform Platform) (string, error)
}

var _ Bundler = (*EsbuildBundler)(nil)

// EsbuildBundler bundles with esbuild. Bare package imports are left
// external so the import rules can point them at a CDN.
type EsbuildBundler struct {
	root string
}

func NewEsbuildBundler(root string) (*EsbuildBundler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bundle root: %w", err)
	}
	return &EsbuildBundler{root: abs}, nil
}

func (b *EsbuildBundler) Bundle(ctx context.Context, entry string, platform Platform) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	esPlatform := api.PlatformBrowser
	if platform == PlatformServer {
		esPlatform = api.PlatformNode
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{"./" + filepath.ToSlash(entry)},
		AbsWorkingDir: b.root,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Platform:      esPlatform,
		Packages:      api.PackagesExternal,
		JSX:           api.JSXAutomatic,
		LogLevel:      api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return "", &BundleError{
			Entry: entry,
			Messages: api.FormatMessages(result.Errors, api.FormatMessagesOptions{
				Kind: api.ErrorMessage,
			}),
		}
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("%w: %s", ErrBundleEmpty, entry)
	}

	for _, f := range result.OutputFiles {
		if strings.HasSuffix(f.Path, ".js") {
			return string(f.Contents), nil
		}
	}
	return string(result.OutputFiles[0].Contents), nil
}
