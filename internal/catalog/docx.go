package catalog

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractDocxLines pulls the paragraph text out of a .docx file, one entry
// per paragraph, blank paragraphs dropped.
func extractDocxLines(data []byte) ([]string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	for _, file := range zipReader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}
		return paragraphsFromDocXML(content), nil
	}

	return nil, fmt.Errorf("document.xml not found in archive")
}

func paragraphsFromDocXML(xmlContent []byte) []string {
	decoder := xml.NewDecoder(bytes.NewReader(xmlContent))

	var lines []string
	var paragraph strings.Builder
	inParagraph := false

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" && t.Name.Space == wordMLNamespace {
				inParagraph = true
				paragraph.Reset()
			}
		case xml.EndElement:
			if t.Name.Local == "p" && t.Name.Space == wordMLNamespace {
				if inParagraph && paragraph.Len() > 0 {
					lines = append(lines, paragraph.String())
				}
				inParagraph = false
			}
		case xml.CharData:
			if !inParagraph {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if paragraph.Len() > 0 {
				paragraph.WriteString(" ")
			}
			paragraph.WriteString(text)
		}
	}

	return lines
}
