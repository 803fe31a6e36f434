package feed

import (
	"bytes"
	"encoding/xml"
	"time"
)

// RenderRSS serializes a document as RSS 2.0 XML.
func RenderRSS(doc Document) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", doc.Title, 4)
	writeElement(&buf, "link", doc.Link, 4)
	writeElement(&buf, "description", doc.Description, 4)
	writeElement(&buf, "language", doc.Language, 4)
	writeElement(&buf, "generator", "promofeeds", 4)
	if len(doc.Entries) > 0 {
		writeElement(&buf, "lastBuildDate", doc.Entries[0].PubDate.Format(time.RFC1123Z), 4)
	}

	for _, entry := range doc.Entries {
		writeEntry(&buf, entry)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func writeEntry(buf *bytes.Buffer, entry Entry) {
	buf.WriteString("    <item>\n")

	buf.WriteString(`      <guid isPermaLink="false">`)
	xml.EscapeText(buf, []byte(entry.GUID))
	buf.WriteString("</guid>\n")

	writeElement(buf, "title", entry.Title, 6)
	writeElement(buf, "link", entry.Link, 6)

	// Description blocks carry markup; CDATA keeps them readable.
	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(entry.Description)
	buf.WriteString("]]></description>\n")

	writeElement(buf, "pubDate", entry.PubDate.Format(time.RFC1123Z), 6)

	buf.WriteString("    </item>\n")
}

// writeElement writes an XML element with proper escaping
func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")

	xml.EscapeText(buf, []byte(content))

	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
