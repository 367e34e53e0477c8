package marketplace

import (
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// Registry holds the gateway for every marketplace with configured
// credentials. Built once at startup; read-only afterwards.
type Registry struct {
	gateways map[integration.MarketplaceCode]integration.MarketplaceGateway
}

// NewRegistry builds gateways for every marketplace the credential store
// knows. Marketplaces without credentials are skipped and logged; callers
// get ErrMarketplaceNotConfigured for them at use time.
func NewRegistry(credentials integration.CredentialStore, logger *zap.Logger, opts ...ClientOption) *Registry {
	r := &Registry{gateways: make(map[integration.MarketplaceCode]integration.MarketplaceGateway)}

	for _, code := range integration.AllMarketplaces() {
		creds, err := credentials.Get(code)
		if err != nil {
			logger.Info("marketplace not configured, skipping",
				zap.String("marketplace", code.String()))
			continue
		}

		switch code {
		case integration.MarketplaceTrendyol:
			r.gateways[code] = NewTrendyolGateway(creds, logger.Named("trendyol"), opts...)
		case integration.MarketplaceN11:
			r.gateways[code] = NewN11Gateway(creds, logger.Named("n11"), opts...)
		case integration.MarketplaceHepsiburada:
			r.gateways[code] = NewHepsiburadaGateway(creds, logger.Named("hepsiburada"), opts...)
		}
	}
	return r
}

// Gateway returns the gateway for a marketplace.
func (r *Registry) Gateway(code integration.MarketplaceCode) (integration.MarketplaceGateway, error) {
	gateway, ok := r.gateways[code]
	if !ok {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	return gateway, nil
}

// All returns every configured gateway.
func (r *Registry) All() []integration.MarketplaceGateway {
	out := make([]integration.MarketplaceGateway, 0, len(r.gateways))
	for _, code := range integration.AllMarketplaces() {
		if gateway, ok := r.gateways[code]; ok {
			out = append(out, gateway)
		}
	}
	return out
}

var _ integration.GatewayRegistry = (*Registry)(nil)
