// Package store defines the persistence contracts the core depends on:
// narrow interfaces for cards, decks, and settings, plus the shared error
// taxonomy and transaction helper. Concrete implementations live in
// platform packages (e.g. platform/postgres); the engines never see a
// storage engine directly.
package store
