package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/julienschmidt/httprouter"

	"github.com/codefionn/rechenschnell/internal/logger"
)

//go:embed static/*
var StaticFiles embed.FS

type staticAsset struct {
	data        []byte
	etag        string
	contentType string
}

// staticAssets holds the embedded files with content-hash ETags.
type staticAssets struct {
	files   map[string]staticAsset
	modTime time.Time
}

func loadStaticAssets() (*staticAssets, error) {
	// Ensure .js files are served with correct MIME type
	if err := mime.AddExtensionType(".js", "application/javascript"); err != nil {
		logger.Warn("Failed to register .js MIME type: %v", err)
	}

	assets := &staticAssets{files: make(map[string]staticAsset), modTime: time.Now()}
	err := fs.WalkDir(StaticFiles, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := StaticFiles.ReadFile(p)
		if err != nil {
			return err
		}
		contentType := mime.TypeByExtension(path.Ext(p))
		if strings.HasSuffix(p, ".js") {
			contentType = "application/javascript"
		}
		name := strings.TrimPrefix(p, "static/")
		assets.files[name] = staticAsset{
			data:        data,
			etag:        fmt.Sprintf(`"%016x"`, xxhash.Sum64(data)),
			contentType: contentType,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	return assets, nil
}

func (a *staticAssets) handle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := strings.TrimPrefix(ps.ByName("filepath"), "/")
	asset, ok := a.files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("ETag", asset.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if asset.contentType != "" {
		w.Header().Set("Content-Type", asset.contentType)
	}
	http.ServeContent(w, r, name, a.modTime, bytes.NewReader(asset.data))
}
