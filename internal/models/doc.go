// Package models defines the core domain models for Hangout.
//
// # Models
//
//   - Event: a planned get-together with its members, date and location
//     polls, chat messages and shared bill. An Event is the unit of
//     persistence: it is loaded, mutated and saved back as a whole.
//   - Member: a user who joined a specific event.
//   - DateOption / LocationOption: proposals members vote on.
//   - Bill / BillItem: the shared bill and its itemized costs.
//   - User: a registered account, referenced by members.
//   - Notification: an in-app feed entry derived from event state.
//
// # Design Principles
//
//  1. Events own everything hanging off them; nothing is shared across events.
//  2. Relationships use ID strings rather than pointers.
//  3. Amounts are integers in the smallest currency unit.
//  4. Timestamps are Unix seconds unless they are user-facing values
//     (proposed dates, the final date), which keep their time.Time zone.
package models
