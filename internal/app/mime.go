package app

import (
	"log/slog"
	"mime"
)

var staticMimeTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".svg":   "image/svg+xml",
	".woff2": "font/woff2",
}

// registerStaticMimeTypes fills in types missing from the host mime database,
// which minimal container images often lack.
func registerStaticMimeTypes(logger *slog.Logger) {
	for ext, typ := range staticMimeTypes {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			logger.Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
		}
	}
}
