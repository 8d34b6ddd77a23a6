// Package domain defines the core business entities of the application:
// decks, cards, per-user SRS settings, and review outcomes. Entities are
// plain structs validated by their own Validate methods; all scheduling
// logic lives in the srs subpackage.
package domain
