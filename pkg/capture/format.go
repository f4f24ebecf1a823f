package capture

import "strings"

// TimestampLayout renders capture times for display.
const TimestampLayout = "15:04:05 02-01-2006"

// cliMarker prefixes every console capture line.
const cliMarker = "[+]"

// DisplayLabel returns the entry label with the client origin prefixed
// when one was captured. The root label is empty, so a verbose root line
// reads "addr:port/" while a named route reads "addr:port/name".
func DisplayLabel(entry *Entry) string {
	if entry.ClientOrigin != "" {
		return entry.ClientOrigin + "/" + entry.Label
	}
	return entry.Label
}

// CLILine formats an entry as its console capture line:
//
//	[+] 15:04:05 02-01-2006 (METHOD) label - queryValue
//	body
//
// The query value part appears only when present, and the body follows
// on its own lines when the request carried one.
func CLILine(entry *Entry) string {
	var sb strings.Builder
	sb.WriteString(cliMarker)
	sb.WriteString(" ")
	sb.WriteString(entry.Timestamp.Format(TimestampLayout))
	sb.WriteString(" (")
	sb.WriteString(entry.Method)
	sb.WriteString(") ")
	sb.WriteString(DisplayLabel(entry))

	if entry.QueryValue != "" {
		sb.WriteString(" - ")
		sb.WriteString(entry.QueryValue)
	}
	if entry.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(entry.Body)
	}

	return sb.String()
}

// WebLine formats an entry for the log view: the console marker is
// stripped while line breaks stay intact. The renderer converts the
// breaks to markup after escaping.
func WebLine(entry *Entry) string {
	return strings.ReplaceAll(CLILine(entry), cliMarker, "")
}
