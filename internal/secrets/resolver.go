package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgsecrets "github.com/harmonia-labs/canvas-adapter/pkg/secrets"
	"github.com/harmonia-labs/canvas-adapter/pkg/utils"
)

// cookieField is the key under which the session cookie is stored in the
// secrets manager entry.
const cookieField = "sp_dc"

// CookieResolver resolves the upstream session cookie, preferring a directly
// configured value and falling back to a secrets manager entry.
type CookieResolver struct {
	logger   *zap.Logger
	provider pkgsecrets.Provider
}

// NewCookieResolver creates a resolver backed by the given provider. provider
// may be nil when only directly configured cookies are in play.
func NewCookieResolver(logger *zap.Logger, provider pkgsecrets.Provider) *CookieResolver {
	return &CookieResolver{logger: logger, provider: provider}
}

// Resolve returns the session cookie. configured wins when non-empty;
// otherwise secretName is read from the provider.
func (r *CookieResolver) Resolve(ctx context.Context, configured, secretName string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if r.provider == nil || secretName == "" {
		return "", fmt.Errorf("no session cookie configured")
	}

	values, err := r.provider.GetSecret(ctx, secretName)
	if err != nil {
		return "", fmt.Errorf("resolve session cookie: %w", err)
	}
	cookie, ok := values[cookieField]
	if !ok || cookie == "" {
		return "", fmt.Errorf("secret [%s] has no %q field", secretName, cookieField)
	}

	r.logger.Info("secrets.cookie_resolved",
		zap.String("secret", secretName),
		zap.String("value", utils.MaskSecret(cookie)))
	return cookie, nil
}
