// Package models contains GORM persistence models mapped to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its domain type.
//
// Structure:
//   - base.go: common id, timestamp and version columns
//   - identity.go: users and branches
//   - conference.go: approved batches with their invoices and line items
//   - workspace.go: the live workspace snapshot stored as JSON
package models
