package fiber

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage/services"
)

const (
	contentTypeJS  = "application/javascript; charset=utf-8"
	cacheNoCache   = "no-cache"
	fileNotFound   = "File not found"
	cssNotBuilt    = "/* CSS not built */"
	clientEntry    = "src/client.tsx"
	clientBuilt    = "dist/client.js"
	stylesBuilt    = "dist/styles.css"
	styledSystemFS = "styled-system"
)

var staticTypes = map[string]string{
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".css":  "text/css",
	".html": "text/html",
}

// readAsset reads rel, a slash-separated path below the asset root.
// Paths that try to climb out of the root are clamped to it.
func (a *Adapter) readAsset(rel string) ([]byte, error) {
	clean := strings.TrimPrefix(path.Clean("/"+rel), "/")
	return os.ReadFile(filepath.Join(a.linkage.Root, filepath.FromSlash(clean)))
}

func (a *Adapter) sendStatic(c fiber.Ctx, rel string) (bool, error) {
	data, err := a.readAsset(rel)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.linkage.Logger.Warn(c.Context(), "failed to read asset", "path", rel, "error", err)
		}
		return false, nil
	}

	contentType, ok := staticTypes[path.Ext(rel)]
	if !ok {
		contentType = "text/plain"
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, cacheNoCache)
	return true, c.Send(data)
}

func (a *Adapter) styles(c fiber.Ctx) error {
	if sent, err := a.sendStatic(c, stylesBuilt); sent || err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/css")
	return c.SendString(cssNotBuilt)
}

// clientBundle prefers the prebuilt bundle and builds one on demand otherwise
func (a *Adapter) clientBundle(c fiber.Ctx) error {
	if sent, err := a.sendStatic(c, clientBuilt); sent || err != nil {
		return err
	}
	return a.sendModule(c, clientEntry)
}

func (a *Adapter) styledSystem(c fiber.Ctx) error {
	if sent, err := a.sendStatic(c, styledSystemFS+path.Clean("/"+c.Params("*"))); sent || err != nil {
		return err
	}
	return c.Status(fiber.StatusNotFound).SendString(fileNotFound)
}

func (a *Adapter) sourceModule(c fiber.Ctx) error {
	entry := services.SourceDir + path.Clean("/"+c.Params("*"))
	if ext := path.Ext(entry); ext != ".ts" && ext != ".tsx" {
		return c.Status(fiber.StatusNotFound).SendString(fileNotFound)
	}

	if _, err := os.Stat(filepath.Join(a.linkage.Root, filepath.FromSlash(entry))); err != nil {
		return c.Status(fiber.StatusNotFound).SendString(fileNotFound)
	}

	return a.sendModule(c, entry)
}

// sendModule bundles entry for the browser. Failures answer 500 in plain
// text; the diagnostics are only included outside production.
func (a *Adapter) sendModule(c fiber.Ctx, entry string) error {
	code, err := a.linkage.Modules.Resolve(c.Context(), entry, services.PlatformBrowser)
	if err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to bundle module", "entry", entry, "error", err)

		body := "Error bundling " + c.Path()
		if !a.linkage.Production {
			body += ":\n" + err.Error()
			var bundleErr *services.BundleError
			if errors.As(err, &bundleErr) {
				body += "\n" + bundleErr.Diagnostics()
			}
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlain)
		return c.Status(mapErrorToStatus(err)).SendString(body)
	}

	c.Set(fiber.HeaderContentType, contentTypeJS)
	c.Set(fiber.HeaderCacheControl, cacheNoCache)
	return c.SendString(code)
}
