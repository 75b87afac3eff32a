// Package browser opens the deployed frontend in the user's browser.
package browser

import (
	"github.com/pkg/browser"

	"github.com/llmdock/llmdock/internal/logger"
)

// Open launches the system browser at url. Failure is logged and
// swallowed; a deployment never fails because a browser is missing.
func Open(url string) {
	logger.Info("Opening %s", url)
	if err := browser.OpenURL(url); err != nil {
		logger.Warn("Failed to open browser: %v", err)
	}
}
