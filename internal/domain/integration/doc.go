// Package integration contains the domain model for the marketplace
// synchronization engine: sync jobs, entity mappings, webhook events, the
// status translator, and the ports (MarketplaceGateway, repositories,
// local-system collaborators) that the infrastructure layer implements.
//
// The engine reconciles catalog and order state between the local commerce
// system and external marketplaces. All remote interaction goes through the
// MarketplaceGateway port; all persistence goes through the repository ports.
// Nothing in this package performs I/O.
package integration
