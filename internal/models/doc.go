// Package models defines the core domain models for the registration portal.
//
// # Models
//
//   - Club: a club with its dues and governing-body fee schedule
//   - Guardian: the paying adult who registers players
//   - Player: one registrant belonging to a guardian
//   - Registration: a player's entry for one club season, with a status lifecycle
//   - Payment: a ledger row written when a checkout completes
//   - Draft: a resumable wizard snapshot for one guardian, club and season
//   - ClubAdmin: an administrator and their permissions for one club
//
// # Design Principles
//
// 1. **Cents everywhere**: money is stored as integer minor units
// 2. **Avoid circular references**: Use ID strings instead of pointers for relationships
// 3. **Status is owned by the lifecycle**: Registration status changes go through
//    CanTransition; only payment reconciliation moves a registration to paid
package models
