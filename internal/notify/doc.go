// Package notify computes study reminder firing times from a user's
// notification settings and runs the periodic sweep that emits due
// reminders to a NotificationSink. Delivery (email, push) is outside
// this package; it only decides when a reminder is due.
package notify
