package app

import (
	"log/slog"
	"mime"
	"sync"
)

// staticTypes are the content types of files under web/static. Minimal
// containers ship without /etc/mime.types, leaving them unresolved.
var staticTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
}

var registerStaticTypesOnce sync.Once

func registerStaticTypes(logger *slog.Logger) {
	registerStaticTypesOnce.Do(func() {
		for ext, typ := range staticTypes {
			if mime.TypeByExtension(ext) != "" {
				continue
			}
			if err := mime.AddExtensionType(ext, typ); err != nil {
				logger.Warn("register static mime type", slog.String("ext", ext), slog.Any("error", err))
			}
		}
	})
}
