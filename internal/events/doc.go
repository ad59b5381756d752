// Package events fans fleet notifications out to live viewers.
//
// The Broadcaster is the default implementation of fleet.Sink: the
// supervisor publishes status changes, chat, and log lines into it, and
// any number of viewers subscribe per bot id or to the firehose. Publish
// never blocks; a subscriber that falls behind loses events rather than
// stalling the fleet.
package events
