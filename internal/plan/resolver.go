package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Resolver answers "what plan does this identity hold". It is injected into
// the quota ledger rather than reached through ambient globals, so tests can
// substitute a fixed resolver.
type Resolver interface {
	Resolve(ctx context.Context, ownerID string) (Tier, error)
}

// ProviderResolver resolves plans through the identity provider's admin API,
// which attributes the subscription plan in each user's app_metadata.
type ProviderResolver struct {
	providerURL string
	serviceKey  string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewProviderResolver creates a resolver backed by the identity provider.
// Requires the service role key for elevated read access.
func NewProviderResolver(providerURL, serviceKey string, logger *slog.Logger) *ProviderResolver {
	return &ProviderResolver{
		providerURL: providerURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type providerUser struct {
	ID          string                 `json:"id"`
	AppMetadata map[string]interface{} `json:"app_metadata"`
}

// Resolve fetches the user record and reads app_metadata.plan. Unknown users
// and users with no attributed plan default to the free tier; only transport
// failures surface as errors.
func (r *ProviderResolver) Resolve(ctx context.Context, ownerID string) (Tier, error) {
	if ownerID == "" {
		return TierFree, nil
	}

	url := fmt.Sprintf("%s/auth/v1/admin/users/%s", r.providerURL, ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TierFree, fmt.Errorf("create plan lookup request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+r.serviceKey)
	req.Header.Set("apikey", r.serviceKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return TierFree, fmt.Errorf("plan lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.logger.Debug("plan lookup: unknown user, defaulting to free", "owner_id", ownerID)
		return TierFree, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return TierFree, fmt.Errorf("plan lookup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return TierFree, fmt.Errorf("decode plan lookup response: %w", err)
	}

	name, _ := user.AppMetadata["plan"].(string)
	return TierFromString(name), nil
}

// tierContextKey is the type for the context key carrying the caller's tier
type tierContextKey struct{}

// WithTier stores the caller's plan tier in the context. The auth middleware
// sets it from the verified JWT's app_metadata plan claim.
func WithTier(ctx context.Context, tier Tier) context.Context {
	return context.WithValue(ctx, tierContextKey{}, tier)
}

// TierFromContext retrieves the plan tier stored in the context, if any.
func TierFromContext(ctx context.Context) (Tier, bool) {
	tier, ok := ctx.Value(tierContextKey{}).(Tier)
	return tier, ok
}

// ClaimResolver resolves plans from the verified JWT's plan claim carried in
// the request context, avoiding a provider round-trip on every admission.
// Tokens without an attributed plan fall back to the wrapped resolver.
type ClaimResolver struct {
	Fallback Resolver
}

// Resolve implements Resolver
func (r *ClaimResolver) Resolve(ctx context.Context, ownerID string) (Tier, error) {
	if tier, ok := TierFromContext(ctx); ok {
		return tier, nil
	}
	return r.Fallback.Resolve(ctx, ownerID)
}

// StaticResolver returns a fixed tier for every identity.
// Useful for single-tenant deployments and tests.
type StaticResolver struct {
	Tier Tier
}

// Resolve implements Resolver
func (r *StaticResolver) Resolve(ctx context.Context, ownerID string) (Tier, error) {
	return r.Tier, nil
}
