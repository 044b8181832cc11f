// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SheetStore: Canonical in-memory sheet state and versioned mutation
//   - SessionStore: Enrichment session tracking
//   - Broadcaster: Fan-out of sheet events to subscribers
//   - RegistryClient: CNPJ company registry lookups
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
