// Package memory manages personal memory entries: reminders, birthdays,
// tasks and events.
//
// Entries are stored as written. Annual recurrence only changes how the
// next occurrence is computed: an annual entry recurs on the anniversary
// of its scheduled time, while a one-off entry occurs once and expires
// afterwards. Upcoming lists the occurrences that fall within a window,
// soonest first and most urgent first on ties.
//
// A Watcher polls Upcoming on an interval and hands the results to a
// callback; Alerts renders them as a short human-readable summary.
package memory
