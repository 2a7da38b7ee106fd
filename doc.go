// Package main provides the entry point of medtracker, a personal medication
// tracking service. It stores medicines with their daily schedules, creates the
// doses due each day and records them as taken or skipped. A JSON API built on
// fiber serves the schedule of the day, the dose history, adherence statistics,
// settings and a full export, with gorm for persistence.
package main
