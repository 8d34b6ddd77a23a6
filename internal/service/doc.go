// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Key components:
//
// 1. Service Interfaces:
//   - Define application-specific operations available to the delivery mechanisms
//   - Each service focuses on a specific domain area (reviewing, bulk jobs, etc.)
//
// 2. Use Case Implementations:
//   - Coordinate between multiple repositories and domain services
//   - Apply transactional boundaries when operations span multiple repositories
//
// 3. Error Handling:
//   - Translate domain-specific errors to application-level errors
//   - Callers use errors.Is/errors.As to check for specific conditions
//
// The service layer depends on domain entities and repository interfaces (from
// store), but never on specific infrastructure implementations.
package service
