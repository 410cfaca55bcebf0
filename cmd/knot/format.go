package main

import "time"

// logDateFormat formats a commit time the way `knot log` prints it:
// "yyyy/MM/dd hh:mm:ss".
func logDateFormat(t time.Time) string {
	return t.Format("2006/01/02 15:04:05")
}

// truncateMessage shortens a commit message to n runes for the one-line
// log format, appending an ellipsis when it was cut.
func truncateMessage(msg string, n int) string {
	r := []rune(msg)
	if len(r) <= n {
		return msg
	}
	return string(r[:n]) + "..."
}
